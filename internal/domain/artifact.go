package domain

import "time"

// Artifact describes one rendered image: which region, variable,
// height, and date bucket it covers, and where it was written. The
// manifest published to the catalog topic is the JSON form of this
// struct.
type Artifact struct {
	Path         string    `json:"path"`
	Region       string    `json:"region"`
	Variable     string    `json:"variable"`
	HeightMeters int       `json:"height_meters"`
	BucketStart  time.Time `json:"bucket_start"`
	BucketEnd    time.Time `json:"bucket_end"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// NewArtifact stamps an artifact record with the current clock time.
func NewArtifact(path, regionName, variable string, heightMeters int, bucketStart, bucketEnd time.Time) Artifact {
	return Artifact{
		Path:         path,
		Region:       regionName,
		Variable:     variable,
		HeightMeters: heightMeters,
		BucketStart:  bucketStart,
		BucketEnd:    bucketEnd,
		GeneratedAt:  clock.Now().UTC(),
	}
}
