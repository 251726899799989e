package registry

import (
	"fmt"

	"github.com/feral-file/ff-token-ledger/internal/adapter"
	"github.com/feral-file/ff-token-ledger/internal/domain"
)

// AllocationClass describes one token class to create at genesis
type AllocationClass struct {
	// MetadataSuffix is appended to the base metadata locator for this class
	MetadataSuffix string `json:"metadata_suffix"`
	// Grants lists the initial balances to mint for this class,
	// keyed by holder address
	Grants map[string]uint64 `json:"grants,omitempty"`
}

// AllocationData represents the structure of the genesis allocation file.
// Classes are created in order, so the array index is the class id.
type AllocationData struct {
	Classes []AllocationClass `json:"classes"`
}

// Allocation is a validated genesis allocation ready to apply
type Allocation struct {
	data *AllocationData
}

// Classes returns the token classes to create, in id order
func (a *Allocation) Classes() []AllocationClass {
	if a == nil {
		return nil
	}
	return a.data.Classes
}

// Grants flattens the per-class grants into the parallel arrays a bulk
// mint consumes. Class ids follow creation order starting at the given
// offset. Iteration over each class's grant map is made deterministic by
// the caller only through ordering guarantees of the flattened arrays
// within one class; cross-holder order within a class is unspecified.
func (a *Allocation) Grants(firstClassID domain.ClassID) (holders []domain.Address, classIDs []domain.ClassID, amounts []uint64) {
	if a == nil {
		return nil, nil, nil
	}
	for i, class := range a.data.Classes {
		id := firstClassID + domain.ClassID(i)
		for holder, amount := range class.Grants {
			if amount == 0 {
				continue
			}
			holders = append(holders, domain.NormalizeAddress(holder))
			classIDs = append(classIDs, id)
			amounts = append(amounts, amount)
		}
	}
	return holders, classIDs, amounts
}

// AllocationLoader defines the interface for loading genesis allocations from files
type AllocationLoader interface {
	// Load loads and validates the allocation from a JSON file
	Load(filePath string) (*Allocation, error)
}

// allocationLoader is the internal implementation of AllocationLoader interface
type allocationLoader struct {
	fs   adapter.FileSystem
	json adapter.JSON
}

// NewAllocationLoader creates a new AllocationLoader with injected dependencies
func NewAllocationLoader(fs adapter.FileSystem, json adapter.JSON) AllocationLoader {
	return &allocationLoader{
		fs:   fs,
		json: json,
	}
}

// Load loads the allocation from a JSON file
func (l *allocationLoader) Load(filePath string) (*Allocation, error) {
	data, err := l.fs.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read allocation file: %w", err)
	}

	var allocationData AllocationData
	if err := l.json.Unmarshal(data, &allocationData); err != nil {
		return nil, fmt.Errorf("failed to parse allocation JSON: %w", err)
	}

	// Reject grants to unusable holder addresses before anything is applied
	for i, class := range allocationData.Classes {
		for holder := range class.Grants {
			if !domain.NormalizeAddress(holder).Valid() {
				return nil, fmt.Errorf("invalid holder address %q in class %d", holder, i)
			}
		}
	}

	return &Allocation{data: &allocationData}, nil
}
