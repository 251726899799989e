package dto

import (
	"fmt"
	"strconv"

	"github.com/feral-file/ff-token-ledger/internal/api/shared/constants"
	apierrors "github.com/feral-file/ff-token-ledger/internal/api/shared/errors"
	"github.com/feral-file/ff-token-ledger/internal/domain"
)

// ParseAmount parses a decimal string amount. Amounts travel as strings
// because uint64 values exceed the safe integer range of JSON consumers.
func ParseAmount(s string) (uint64, error) {
	if s == "" {
		return 0, fmt.Errorf("amount is required")
	}
	amount, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: must be a decimal integer within uint64 range", s)
	}
	return amount, nil
}

// ParseAmounts parses a slice of decimal string amounts
func ParseAmounts(in []string) ([]uint64, error) {
	amounts := make([]uint64, len(in))
	for i, s := range in {
		amount, err := ParseAmount(s)
		if err != nil {
			return nil, err
		}
		amounts[i] = amount
	}
	return amounts, nil
}

func validateAddress(field, address string) error {
	if !domain.NormalizeAddress(address).Valid() {
		return apierrors.NewValidationError(fmt.Sprintf("invalid %s address: %q", field, address))
	}
	return nil
}

// CreateClassRequest represents the request body for registering a token class
type CreateClassRequest struct {
	MetadataSuffix string `json:"metadata_suffix"`
}

// Validate validates the request body
func (r *CreateClassRequest) Validate() error {
	if len(r.MetadataSuffix) > constants.MAX_METADATA_SUFFIX_LENGTH {
		return apierrors.NewValidationError(fmt.Sprintf("metadata_suffix exceeds %d characters", constants.MAX_METADATA_SUFFIX_LENGTH))
	}
	return nil
}

// MintRequest represents the request body for minting to a single holder
type MintRequest struct {
	Holder  string `json:"holder"`
	Amount  string `json:"amount"`
	AuxData []byte `json:"aux_data,omitempty"`
}

// Validate validates the request body
func (r *MintRequest) Validate() error {
	if err := validateAddress("holder", r.Holder); err != nil {
		return err
	}
	if _, err := ParseAmount(r.Amount); err != nil {
		return apierrors.NewValidationError(err.Error())
	}
	return nil
}

// BatchMintRequest represents the request body for minting to multiple
// holders in one atomic operation. The three arrays are parallel.
type BatchMintRequest struct {
	Holders  []string `json:"holders"`
	ClassIDs []uint64 `json:"class_ids"`
	Amounts  []string `json:"amounts"`
	AuxData  []byte   `json:"aux_data,omitempty"`
}

// Validate validates the request body
func (r *BatchMintRequest) Validate() error {
	if len(r.Holders) == 0 {
		return apierrors.NewValidationError("holders is required")
	}
	if len(r.Holders) > constants.MAX_BATCH_ITEMS_PER_REQUEST {
		return apierrors.NewValidationError(fmt.Sprintf("maximum %d items allowed", constants.MAX_BATCH_ITEMS_PER_REQUEST))
	}
	for _, holder := range r.Holders {
		if err := validateAddress("holder", holder); err != nil {
			return err
		}
	}
	if _, err := ParseAmounts(r.Amounts); err != nil {
		return apierrors.NewValidationError(err.Error())
	}
	return nil
}

// BurnRequest represents the request body for burning a single class balance
type BurnRequest struct {
	ClassID uint64 `json:"class_id"`
	Amount  string `json:"amount"`
}

// Validate validates the request body
func (r *BurnRequest) Validate() error {
	if _, err := ParseAmount(r.Amount); err != nil {
		return apierrors.NewValidationError(err.Error())
	}
	return nil
}

// BatchBurnRequest represents the request body for burning balances across
// classes in one atomic operation. The two arrays are parallel.
type BatchBurnRequest struct {
	ClassIDs []uint64 `json:"class_ids"`
	Amounts  []string `json:"amounts"`
}

// Validate validates the request body
func (r *BatchBurnRequest) Validate() error {
	if len(r.ClassIDs) == 0 {
		return apierrors.NewValidationError("class_ids is required")
	}
	if len(r.ClassIDs) > constants.MAX_BATCH_ITEMS_PER_REQUEST {
		return apierrors.NewValidationError(fmt.Sprintf("maximum %d items allowed", constants.MAX_BATCH_ITEMS_PER_REQUEST))
	}
	if _, err := ParseAmounts(r.Amounts); err != nil {
		return apierrors.NewValidationError(err.Error())
	}
	return nil
}

// TransferRequest represents the request body for moving balance between holders
type TransferRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	ClassID uint64 `json:"class_id"`
	Amount  string `json:"amount"`
	AuxData []byte `json:"aux_data,omitempty"`
}

// Validate validates the request body
func (r *TransferRequest) Validate() error {
	if err := validateAddress("from", r.From); err != nil {
		return err
	}
	if err := validateAddress("to", r.To); err != nil {
		return err
	}
	if _, err := ParseAmount(r.Amount); err != nil {
		return apierrors.NewValidationError(err.Error())
	}
	return nil
}

// BatchTransferRequest represents the request body for moving balances
// across classes between one holder pair in one atomic operation
type BatchTransferRequest struct {
	From     string   `json:"from"`
	To       string   `json:"to"`
	ClassIDs []uint64 `json:"class_ids"`
	Amounts  []string `json:"amounts"`
	AuxData  []byte   `json:"aux_data,omitempty"`
}

// Validate validates the request body
func (r *BatchTransferRequest) Validate() error {
	if err := validateAddress("from", r.From); err != nil {
		return err
	}
	if err := validateAddress("to", r.To); err != nil {
		return err
	}
	if len(r.ClassIDs) == 0 {
		return apierrors.NewValidationError("class_ids is required")
	}
	if len(r.ClassIDs) > constants.MAX_BATCH_ITEMS_PER_REQUEST {
		return apierrors.NewValidationError(fmt.Sprintf("maximum %d items allowed", constants.MAX_BATCH_ITEMS_PER_REQUEST))
	}
	if _, err := ParseAmounts(r.Amounts); err != nil {
		return apierrors.NewValidationError(err.Error())
	}
	return nil
}

// SetGateRequest represents the request body for flipping a global gate
type SetGateRequest struct {
	Enabled *bool `json:"enabled"`
}

// Validate validates the request body
func (r *SetGateRequest) Validate() error {
	if r.Enabled == nil {
		return apierrors.NewValidationError("enabled is required")
	}
	return nil
}

// SetNameRequest represents the request body for renaming the ledger
type SetNameRequest struct {
	Name string `json:"name"`
}

// Validate validates the request body
func (r *SetNameRequest) Validate() error {
	if r.Name == "" {
		return apierrors.NewValidationError("name is required")
	}
	if len(r.Name) > constants.MAX_NAME_LENGTH {
		return apierrors.NewValidationError(fmt.Sprintf("name exceeds %d characters", constants.MAX_NAME_LENGTH))
	}
	return nil
}

// SetAdministratorRequest represents the request body for handing over administration
type SetAdministratorRequest struct {
	Administrator string `json:"administrator"`
}

// Validate validates the request body
func (r *SetAdministratorRequest) Validate() error {
	return validateAddress("administrator", r.Administrator)
}
