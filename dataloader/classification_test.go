package dataloader

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeImageFiles(t *testing.T, dir string, names ...string) {
	t.Helper()

	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	for _, name := range names {
		if err := ioutil.WriteFile(filepath.Join(dir, name), []byte("not really an image"), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
}

func TestFromFolder(t *testing.T) {
	root := t.TempDir()
	writeImageFiles(t, filepath.Join(root, "healthy"), "a.jpg", "b.PNG", "notes.txt")
	writeImageFiles(t, filepath.Join(root, "rust"), "c.jpeg")
	writeImageFiles(t, filepath.Join(root, "blight"), "d.gif", "e.jpg")

	dl, err := FromFolder(root)
	if err != nil {
		t.Fatalf("from folder: %v", err)
	}

	if dl.NumClasses() != 3 {
		t.Errorf("NumClasses() = %d, want 3", dl.NumClasses())
	}
	wantLabels := []string{"blight", "healthy", "rust"}
	for i, label := range wantLabels {
		if dl.IndexToLabel[i] != label {
			t.Errorf("label %d = %s, want %s", i, dl.IndexToLabel[i], label)
		}
	}
	if dl.Len() != 5 {
		t.Errorf("Len() = %d, want 5", dl.Len())
	}

	//every sample's path must live under the directory its target names
	perClass := make(map[int]int)
	for _, s := range dl.Dataset().samples {
		target := s.Target.(int)
		perClass[target]++
		path := s.Data.(string)
		if !strings.Contains(path, string(os.PathSeparator)+dl.IndexToLabel[target]+string(os.PathSeparator)) {
			t.Errorf("sample %s has target %s", path, dl.IndexToLabel[target])
		}
	}
	if perClass[0] != 2 || perClass[1] != 2 || perClass[2] != 1 {
		t.Errorf("unexpected per class counts: %v", perClass)
	}
}

func TestFromFolderNoClasses(t *testing.T) {
	root := t.TempDir()
	if err := ioutil.WriteFile(filepath.Join(root, "stray.jpg"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := FromFolder(root); err == nil {
		t.Error("expected an error for a directory without class subdirectories")
	}
}

func TestFromFolderNoImages(t *testing.T) {
	root := t.TempDir()
	writeImageFiles(t, filepath.Join(root, "empty"), "notes.txt")

	if _, err := FromFolder(root); err == nil {
		t.Error("expected an error for class directories without images")
	}
}

func TestFromFolderMissingDir(t *testing.T) {
	if _, err := FromFolder(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestClassificationSplitKeepsLabels(t *testing.T) {
	labels := []string{"healthy", "rust"}
	dl := NewClassification(intDataset(10), 10, labels)

	train, rest, err := dl.Split(0.5)
	if err != nil {
		t.Fatalf("split: %v", err)
	}
	if train.Len() != 5 || rest.Len() != 5 {
		t.Errorf("split sizes = %d/%d, want 5/5", train.Len(), rest.Len())
	}
	if train.NumClasses() != 2 || rest.NumClasses() != 2 {
		t.Errorf("both parts should keep the label mapping")
	}
	if rest.IndexToLabel[1] != "rust" {
		t.Errorf("labels changed on split: %v", rest.IndexToLabel)
	}

	if _, _, err := dl.Split(1.2); err == nil {
		t.Error("expected an error for an out of range fraction")
	}
}
