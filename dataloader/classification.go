package dataloader

import (
	"fmt"
	"io/ioutil"
	"math/rand"
	"path/filepath"
	"strings"
)

// ClassificationDataLoader is a DataLoader whose targets are class
// indices, together with the index -> label name mapping.
type ClassificationDataLoader struct {
	*DataLoader
	IndexToLabel []string
}

func NewClassification(dataset *Dataset, size int, indexToLabel []string) *ClassificationDataLoader {
	return &ClassificationDataLoader{
		DataLoader:   New(dataset, size),
		IndexToLabel: indexToLabel,
	}
}

func (dl *ClassificationDataLoader) NumClasses() int {
	return len(dl.IndexToLabel)
}

// Split partitions the loader like DataLoader.Split and keeps the
// label mapping on both halves.
func (dl *ClassificationDataLoader) Split(fraction float64) (*ClassificationDataLoader, *ClassificationDataLoader, error) {
	train, rest, err := dl.DataLoader.Split(fraction)
	if err != nil {
		return nil, nil, err
	}
	first := &ClassificationDataLoader{DataLoader: train, IndexToLabel: dl.IndexToLabel}
	second := &ClassificationDataLoader{DataLoader: rest, IndexToLabel: dl.IndexToLabel}
	return first, second, nil
}

// FromFolder builds a classification loader from a directory with one
// subdirectory per class. Image files inside a class directory become
// samples whose Data is the file path and whose Target is the class
// index. Labels are the subdirectory names in sorted order; the sample
// order is shuffled.
func FromFolder(dir string) (*ClassificationDataLoader, error) {
	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var labels []string
	for _, entry := range entries {
		if entry.IsDir() {
			labels = append(labels, entry.Name())
		}
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("no class directories found in %s", dir)
	}

	var samples []Sample
	for index, label := range labels {
		files, err := ioutil.ReadDir(filepath.Join(dir, label))
		if err != nil {
			return nil, err
		}
		for _, file := range files {
			if file.IsDir() || !isImageFile(file.Name()) {
				continue
			}
			samples = append(samples, Sample{
				Data:   filepath.Join(dir, label, file.Name()),
				Target: index,
			})
		}
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("no image files found in %s", dir)
	}

	rand.Shuffle(len(samples), func(i, j int) {
		samples[i], samples[j] = samples[j], samples[i]
	})

	return NewClassification(NewDataset(samples), len(samples), labels), nil
}

func isImageFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png", ".gif":
		return true
	}
	return false
}
