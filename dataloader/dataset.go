package dataloader

// Sample is a single dataset element together with its target.
type Sample struct {
	Data   interface{}
	Target interface{}
}

// Dataset is a re-iterable sequence of samples. Take, Skip and Shard
// return views sharing the backing samples, so they are cheap.
type Dataset struct {
	samples []Sample
}

func NewDataset(samples []Sample) *Dataset {
	return &Dataset{samples: samples}
}

func (d *Dataset) Len() int {
	return len(d.samples)
}

// Take returns a view over the first n samples.
func (d *Dataset) Take(n int) *Dataset {
	if n < 0 {
		n = 0
	}
	if n > len(d.samples) {
		n = len(d.samples)
	}
	return &Dataset{samples: d.samples[:n]}
}

// Skip returns a view with the first n samples removed.
func (d *Dataset) Skip(n int) *Dataset {
	if n < 0 {
		n = 0
	}
	if n > len(d.samples) {
		n = len(d.samples)
	}
	return &Dataset{samples: d.samples[n:]}
}

// Shard returns the samples assigned to shard index out of numShards.
// Sample i belongs to shard i % numShards, so shards stay balanced.
func (d *Dataset) Shard(numShards int, index int) *Dataset {
	if numShards <= 1 {
		return d
	}
	var out []Sample
	for i := index; i < len(d.samples); i += numShards {
		out = append(out, d.samples[i])
	}
	return &Dataset{samples: out}
}
