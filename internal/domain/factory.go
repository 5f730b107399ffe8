package domain

// Factory is the routing context for one request.
type Factory struct {
	Key       string
	Partition string
	ID        int64
	HasID     bool
}

// Directory resolves factory keys. It is read-only after construction.
type Directory struct {
	partitions map[string]string
	ids        map[string]int64
	defaultKey string
}

func NewDirectory(partitions map[string]string, ids map[string]int64, defaultKey string) *Directory {
	d := &Directory{
		partitions: make(map[string]string, len(partitions)),
		ids:        make(map[string]int64, len(ids)),
		defaultKey: defaultKey,
	}
	for k, v := range partitions {
		d.partitions[k] = v
	}
	for k, v := range ids {
		d.ids[k] = v
	}
	return d
}

func (d *Directory) DefaultKey() string {
	return d.defaultKey
}

// Resolve never fails: keys without a partition fall back to the default factory.
func (d *Directory) Resolve(key string) Factory {
	partition, ok := d.partitions[key]
	if !ok {
		key = d.defaultKey
		partition = d.partitions[key]
	}
	id, hasID := d.ids[key]
	return Factory{
		Key:       key,
		Partition: partition,
		ID:        id,
		HasID:     hasID,
	}
}
