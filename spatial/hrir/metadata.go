package hrir

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Errors returned by metadata parsing and dataset loading.
var (
	ErrInvalidMetadata = errors.New("hrir: invalid metadata")
	ErrMissingLeaf     = errors.New("hrir: missing metadata leaf")
	ErrBadShape        = errors.New("hrir: bad dataset shape")
)

// Leaf names required in the metadata resource.
const (
	leafIR             = "Data.IR"
	leafSourcePosition = "SourcePosition"
	leafSamplingRate   = "Data.SamplingRate"
)

// metadataFile mirrors the structured-text dataset descriptor:
// a name plus a flat list of typed leaves.
type metadataFile struct {
	Name   string         `json:"name"`
	Leaves []metadataLeaf `json:"leaves"`
}

type metadataLeaf struct {
	Name       string          `json:"name"`
	Type       string          `json:"type"`
	Shape      []int           `json:"shape,omitempty"`
	Value      json.RawMessage `json:"value,omitempty"`
	Data       json.RawMessage `json:"data,omitempty"`
	Attributes json.RawMessage `json:"attributes,omitempty"`
}

// Metadata is the parsed dataset description: the IR tensor shape, the
// measurement grid, and the measurement sample rate.
type Metadata struct {
	Name         string
	NumPositions int // M
	NumReceivers int // R
	Length       int // N
	SampleRate   float64
	Positions    []Position
}

// Position is one measured source direction.
type Position struct {
	Azimuth   float64 // degrees
	Elevation float64 // degrees
	Distance  float64 // meters
}

// ParseMetadata parses the JSON metadata resource. It requires the
// Data.IR, SourcePosition, and Data.SamplingRate leaves.
func ParseMetadata(data []byte) (*Metadata, error) {
	var file metadataFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidMetadata, err)
	}

	leaves := make(map[string]*metadataLeaf, len(file.Leaves))
	for i := range file.Leaves {
		leaves[file.Leaves[i].Name] = &file.Leaves[i]
	}

	ir, ok := leaves[leafIR]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingLeaf, leafIR)
	}

	if len(ir.Shape) != 3 {
		return nil, fmt.Errorf("%w: %s shape must be [M,R,N], got %v", ErrBadShape, leafIR, ir.Shape)
	}

	m, r, n := ir.Shape[0], ir.Shape[1], ir.Shape[2]
	if m <= 0 || r <= 0 || n <= 0 {
		return nil, fmt.Errorf("%w: %s shape must be positive, got %v", ErrBadShape, leafIR, ir.Shape)
	}

	posLeaf, ok := leaves[leafSourcePosition]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingLeaf, leafSourcePosition)
	}

	positions, err := parsePositions(posLeaf, m)
	if err != nil {
		return nil, err
	}

	rateLeaf, ok := leaves[leafSamplingRate]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingLeaf, leafSamplingRate)
	}

	rate, err := parseScalar(rateLeaf)
	if err != nil {
		return nil, err
	}

	if rate <= 0 {
		return nil, fmt.Errorf("%w: sample rate must be > 0, got %f", ErrInvalidMetadata, rate)
	}

	return &Metadata{
		Name:         file.Name,
		NumPositions: m,
		NumReceivers: r,
		Length:       n,
		SampleRate:   rate,
		Positions:    positions,
	}, nil
}

// parsePositions decodes the SourcePosition leaf data: an M x 3 array of
// (azimuth, elevation, distance) rows.
func parsePositions(leaf *metadataLeaf, m int) ([]Position, error) {
	raw := leaf.Data
	if raw == nil {
		raw = leaf.Value
	}

	if raw == nil {
		return nil, fmt.Errorf("%w: %s has no data", ErrInvalidMetadata, leafSourcePosition)
	}

	var rows [][]float64
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidMetadata, leafSourcePosition, err)
	}

	if len(rows) != m {
		return nil, fmt.Errorf("%w: %s has %d rows, expected %d", ErrBadShape, leafSourcePosition, len(rows), m)
	}

	positions := make([]Position, m)

	for i, row := range rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("%w: %s row %d has %d values", ErrBadShape, leafSourcePosition, i, len(row))
		}

		positions[i] = Position{Azimuth: row[0], Elevation: row[1]}
		if len(row) >= 3 {
			positions[i].Distance = row[2]
		}
	}

	return positions, nil
}

// parseScalar decodes a leaf carrying either a bare number or a
// single-element array, in data or value form.
func parseScalar(leaf *metadataLeaf) (float64, error) {
	raw := leaf.Data
	if raw == nil {
		raw = leaf.Value
	}

	if raw == nil {
		return 0, fmt.Errorf("%w: %s has no data", ErrInvalidMetadata, leaf.Name)
	}

	var scalar float64
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return scalar, nil
	}

	var arr []float64
	if err := json.Unmarshal(raw, &arr); err != nil || len(arr) == 0 {
		return 0, fmt.Errorf("%w: %s is neither scalar nor array", ErrInvalidMetadata, leaf.Name)
	}

	return arr[0], nil
}
