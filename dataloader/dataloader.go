// Package dataloader turns datasets into shuffled, preprocessed,
// batched sample streams for training and evaluation.
package dataloader

import (
	"context"
	"fmt"
	"math/rand"
	"runtime"
	"time"
)

// Options control how Gen assembles the batch pipeline.
type Options struct {
	BatchSize int

	// Training repeats the dataset indefinitely; Shuffle is only
	// honored while training.
	Training bool
	Shuffle  bool

	// NumShards/ShardIndex restrict the pass to one input pipeline's
	// share of the samples.
	NumShards  int
	ShardIndex int

	// Preprocess is applied to every sample before shuffling and
	// batching, with Parallelism workers (GOMAXPROCS when zero).
	// Sample order is preserved.
	Preprocess  func(Sample) Sample
	Parallelism int

	// Prefetch is the number of batches buffered ahead of the
	// consumer. Zero means one.
	Prefetch int

	// Seed fixes the shuffle order. Zero picks a random seed.
	Seed int64
}

// DataLoader pairs a dataset with its sample count. The count is kept
// explicitly so derived loaders (Split, shards) can report their size
// without a pass over the data.
type DataLoader struct {
	dataset *Dataset
	size    int
}

func New(dataset *Dataset, size int) *DataLoader {
	return &DataLoader{dataset: dataset, size: size}
}

func (dl *DataLoader) Len() int {
	return dl.size
}

func (dl *DataLoader) Dataset() *Dataset {
	return dl.dataset
}

// Split partitions the loader in two, the first part receiving the
// given fraction of the samples. The fraction must lie strictly
// between 0 and 1.
func (dl *DataLoader) Split(fraction float64) (*DataLoader, *DataLoader, error) {
	if fraction <= 0 || fraction >= 1 {
		return nil, nil, fmt.Errorf("split fraction must be within (0, 1), got %v", fraction)
	}
	trainSize := int(float64(dl.size) * fraction)
	train := New(dl.dataset.Take(trainSize), trainSize)
	rest := New(dl.dataset.Skip(trainSize), dl.size-trainSize)
	return train, rest, nil
}

// Gen streams batches until the dataset is exhausted, or forever when
// opts.Training is set. The last batch of a pass may be smaller than
// opts.BatchSize. The returned channel is closed when the pass ends or
// ctx is canceled; canceling ctx also stops all pipeline workers.
func (dl *DataLoader) Gen(ctx context.Context, opts Options) <-chan []Sample {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = 1
	}
	prefetch := opts.Prefetch
	if prefetch <= 0 {
		prefetch = 1
	}

	ds := dl.dataset
	if opts.NumShards > 1 {
		ds = ds.Shard(opts.NumShards, opts.ShardIndex)
	}

	// The shuffle buffer does not need to hold more than a few
	// batches to decorrelate neighboring samples.
	shuffleSize := dl.size
	if 3*batchSize < shuffleSize {
		shuffleSize = 3 * batchSize
	}
	if shuffleSize < 1 {
		shuffleSize = 1
	}

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	samples := make(chan Sample, batchSize)
	go func() {
		defer close(samples)
		if ds.Len() == 0 {
			return
		}
		for {
			if !emitPass(ctx, ds, opts, shuffleSize, rng, samples) {
				return
			}
			if !opts.Training {
				return
			}
		}
	}()

	out := make(chan []Sample, prefetch)
	go func() {
		defer close(out)
		batch := make([]Sample, 0, batchSize)
		for s := range samples {
			batch = append(batch, s)
			if len(batch) == batchSize {
				select {
				case out <- batch:
				case <-ctx.Done():
					return
				}
				batch = make([]Sample, 0, batchSize)
			}
		}
		if len(batch) > 0 {
			select {
			case out <- batch:
			case <-ctx.Done():
			}
		}
	}()
	return out
}

// emitPass sends one full pass over ds into out. It reports false when
// ctx was canceled mid-pass.
func emitPass(ctx context.Context, ds *Dataset, opts Options, shuffleSize int, rng *rand.Rand, out chan<- Sample) bool {
	in := mapStage(ctx, ds, opts)
	if opts.Training && opts.Shuffle {
		return shuffleStage(ctx, in, shuffleSize, rng, out)
	}
	for {
		select {
		case s, ok := <-in:
			if !ok {
				return true
			}
			select {
			case out <- s:
			case <-ctx.Done():
				return false
			}
		case <-ctx.Done():
			return false
		}
	}
}

type mapJob struct {
	sample Sample
	done   chan Sample
}

// mapStage applies opts.Preprocess with a pool of workers while
// keeping the sample order: the feeder queues a result slot per sample
// and the emitter drains the slots in queueing order.
func mapStage(ctx context.Context, ds *Dataset, opts Options) <-chan Sample {
	out := make(chan Sample)

	if opts.Preprocess == nil {
		go func() {
			defer close(out)
			for _, s := range ds.samples {
				select {
				case out <- s:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	}

	workers := opts.Parallelism
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	jobs := make(chan mapJob, workers)
	order := make(chan chan Sample, workers)

	go func() {
		defer close(jobs)
		defer close(order)
		for _, s := range ds.samples {
			j := mapJob{sample: s, done: make(chan Sample, 1)}
			select {
			case jobs <- j:
			case <-ctx.Done():
				return
			}
			select {
			case order <- j.done:
			case <-ctx.Done():
				return
			}
		}
	}()

	for i := 0; i < workers; i++ {
		go func() {
			for j := range jobs {
				j.done <- opts.Preprocess(j.sample)
			}
		}()
	}

	go func() {
		defer close(out)
		for done := range order {
			s := <-done
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// shuffleStage forwards samples through a bounded reservoir: once the
// buffer is full, each incoming sample evicts a randomly chosen one.
// Whatever remains when the input closes is flushed in random order.
func shuffleStage(ctx context.Context, in <-chan Sample, size int, rng *rand.Rand, out chan<- Sample) bool {
	buf := make([]Sample, 0, size)
	emit := func(s Sample) bool {
		select {
		case out <- s:
			return true
		case <-ctx.Done():
			return false
		}
	}
	for {
		select {
		case s, ok := <-in:
			if !ok {
				rng.Shuffle(len(buf), func(i, j int) {
					buf[i], buf[j] = buf[j], buf[i]
				})
				for _, s := range buf {
					if !emit(s) {
						return false
					}
				}
				return true
			}
			if len(buf) < size {
				buf = append(buf, s)
				continue
			}
			i := rng.Intn(len(buf))
			evicted := buf[i]
			buf[i] = s
			if !emit(evicted) {
				return false
			}
		case <-ctx.Done():
			return false
		}
	}
}
