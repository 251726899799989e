package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/feral-file/ff-token-ledger/internal/api/middleware"
	"github.com/feral-file/ff-token-ledger/internal/api/shared/dto"
	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/ledger"
)

// Ledger defines the runtime operations the REST surface exposes
type Ledger interface {
	CreateTokenClass(ctx context.Context, caller domain.Address, metadataSuffix string) (domain.ClassID, error)
	Mint(ctx context.Context, caller, holder domain.Address, classID domain.ClassID, amount uint64, auxData []byte) error
	BulkMint(ctx context.Context, caller domain.Address, holders []domain.Address, classIDs []domain.ClassID, amounts []uint64, auxData []byte) error
	Burn(ctx context.Context, caller domain.Address, classID domain.ClassID, amount uint64) error
	BurnFrom(ctx context.Context, caller, holder domain.Address, classID domain.ClassID, amount uint64) error
	BatchBurn(ctx context.Context, caller domain.Address, classIDs []domain.ClassID, amounts []uint64) error
	BatchBurnFrom(ctx context.Context, caller, holder domain.Address, classIDs []domain.ClassID, amounts []uint64) error
	Transfer(ctx context.Context, caller, from, to domain.Address, classID domain.ClassID, amount uint64, auxData []byte) error
	BatchTransfer(ctx context.Context, caller, from, to domain.Address, classIDs []domain.ClassID, amounts []uint64, auxData []byte) error
	SetTransfersEnabled(ctx context.Context, caller domain.Address, enabled bool) error
	SetMarketEnabled(ctx context.Context, caller domain.Address, enabled bool) error
	SetName(ctx context.Context, caller domain.Address, newName string) error
	TransferAdministration(ctx context.Context, caller, newAdministrator domain.Address) error

	Administrator() domain.Address
	Name() string
	TransfersEnabled() bool
	MarketEnabled() bool
	ClassCount() uint64
	Classes() []ledger.TokenClass
	BalanceOf(holder domain.Address, classID domain.ClassID) uint64
	ResolveMetadata(classID domain.ClassID) (string, error)
}

// Handler defines the interface for REST API handlers
type Handler interface {
	// CreateClass registers a new token class
	// POST /api/v1/classes
	CreateClass(c *gin.Context)

	// MintClass mints balance of one class to a holder
	// POST /api/v1/classes/:id/mint
	MintClass(c *gin.Context)

	// BatchMint mints balances to multiple holders atomically
	// POST /api/v1/mint/batch
	BatchMint(c *gin.Context)

	// Burn destroys balance held by the caller
	// POST /api/v1/burn
	Burn(c *gin.Context)

	// BatchBurn destroys caller balances across classes atomically
	// POST /api/v1/burn/batch
	BatchBurn(c *gin.Context)

	// BurnFrom destroys balance held by another holder
	// POST /api/v1/holders/:holder/burn
	BurnFrom(c *gin.Context)

	// BatchBurnFrom destroys another holder's balances across classes atomically
	// POST /api/v1/holders/:holder/burn/batch
	BatchBurnFrom(c *gin.Context)

	// Transfer moves balance between holders
	// POST /api/v1/transfer
	Transfer(c *gin.Context)

	// BatchTransfer moves balances across classes between holders atomically
	// POST /api/v1/transfer/batch
	BatchTransfer(c *gin.Context)

	// SetTransfersGate flips the global transfer gate
	// PUT /api/v1/gates/transfers
	SetTransfersGate(c *gin.Context)

	// SetMarketGate flips the global market gate
	// PUT /api/v1/gates/market
	SetMarketGate(c *gin.Context)

	// GetGates reports both global gates
	// GET /api/v1/gates
	GetGates(c *gin.Context)

	// SetName changes the ledger display name
	// PUT /api/v1/name
	SetName(c *gin.Context)

	// SetAdministrator hands the administrator role to a new address
	// PUT /api/v1/administrator
	SetAdministrator(c *gin.Context)

	// GetLedgerInfo describes the ledger identity
	// GET /api/v1/ledger
	GetLedgerInfo(c *gin.Context)

	// ListClasses lists the registered token classes
	// GET /api/v1/classes
	ListClasses(c *gin.Context)

	// GetClassURI resolves the metadata locator of a class
	// GET /api/v1/classes/:id/uri
	GetClassURI(c *gin.Context)

	// GetBalance returns one holder's balance for one class
	// GET /api/v1/holders/:holder/balances/:id
	GetBalance(c *gin.Context)

	// HealthCheck returns the health status of the API
	// GET /health
	HealthCheck(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	ledger Ledger
}

// NewHandler creates a new REST API handler backed by the ledger runtime
func NewHandler(l Ledger) Handler {
	return &handler{ledger: l}
}

// caller resolves the authenticated caller's ledger identity. JWT subjects
// are the caller's address; API key callers act as the administrator.
func (h *handler) caller(c *gin.Context) (domain.Address, bool) {
	if subject := middleware.AuthSubject(c); subject != "" {
		return domain.NormalizeAddress(subject), true
	}
	if middleware.AuthType(c) == middleware.AuthTypeAPIKey {
		return h.ledger.Administrator(), true
	}
	return "", false
}

// requireCaller resolves the caller or aborts with 401
func (h *handler) requireCaller(c *gin.Context) (domain.Address, bool) {
	caller, ok := h.caller(c)
	if !ok {
		respondBadRequest(c, "Caller identity is missing")
		return "", false
	}
	return caller, true
}

// classIDParam parses the :id path parameter
func classIDParam(c *gin.Context) (domain.ClassID, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		respondBadRequest(c, "Invalid class id", err.Error())
		return 0, false
	}
	return domain.ClassID(id), true
}

// holderParam parses the :holder path parameter
func holderParam(c *gin.Context) (domain.Address, bool) {
	holder := domain.NormalizeAddress(c.Param("holder"))
	if !holder.Valid() {
		respondBadRequest(c, "Invalid holder address")
		return "", false
	}
	return holder, true
}

func toClassIDs(in []uint64) []domain.ClassID {
	out := make([]domain.ClassID, len(in))
	for i, id := range in {
		out[i] = domain.ClassID(id)
	}
	return out
}

// CreateClass registers a new token class
func (h *handler) CreateClass(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	var req dto.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	id, err := h.ledger.CreateTokenClass(c.Request.Context(), caller, req.MetadataSuffix)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.CreateClassResponse{ClassID: uint64(id)})
}

// MintClass mints balance of one class to a holder
func (h *handler) MintClass(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}
	classID, ok := classIDParam(c)
	if !ok {
		return
	}

	var req dto.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	amount, _ := dto.ParseAmount(req.Amount)

	holder := domain.NormalizeAddress(req.Holder)
	if err := h.ledger.Mint(c.Request.Context(), caller, holder, classID, amount, req.AuxData); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		Holder:  holder.String(),
		ClassID: uint64(classID),
		Amount:  dto.FormatAmount(h.ledger.BalanceOf(holder, classID)),
	})
}

// BatchMint mints balances to multiple holders atomically
func (h *handler) BatchMint(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	var req dto.BatchMintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	amounts, _ := dto.ParseAmounts(req.Amounts)

	holders := make([]domain.Address, len(req.Holders))
	for i, holder := range req.Holders {
		holders[i] = domain.NormalizeAddress(holder)
	}

	err := h.ledger.BulkMint(c.Request.Context(), caller, holders, toClassIDs(req.ClassIDs), amounts, req.AuxData)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK)
}

// Burn destroys balance held by the caller
func (h *handler) Burn(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	var req dto.BurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	amount, _ := dto.ParseAmount(req.Amount)

	if err := h.ledger.Burn(c.Request.Context(), caller, domain.ClassID(req.ClassID), amount); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		Holder:  caller.String(),
		ClassID: req.ClassID,
		Amount:  dto.FormatAmount(h.ledger.BalanceOf(caller, domain.ClassID(req.ClassID))),
	})
}

// BatchBurn destroys caller balances across classes atomically
func (h *handler) BatchBurn(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	var req dto.BatchBurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	amounts, _ := dto.ParseAmounts(req.Amounts)

	if err := h.ledger.BatchBurn(c.Request.Context(), caller, toClassIDs(req.ClassIDs), amounts); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK)
}

// BurnFrom destroys balance held by another holder
func (h *handler) BurnFrom(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}
	holder, ok := holderParam(c)
	if !ok {
		return
	}

	var req dto.BurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	amount, _ := dto.ParseAmount(req.Amount)

	if err := h.ledger.BurnFrom(c.Request.Context(), caller, holder, domain.ClassID(req.ClassID), amount); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		Holder:  holder.String(),
		ClassID: req.ClassID,
		Amount:  dto.FormatAmount(h.ledger.BalanceOf(holder, domain.ClassID(req.ClassID))),
	})
}

// BatchBurnFrom destroys another holder's balances across classes atomically
func (h *handler) BatchBurnFrom(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}
	holder, ok := holderParam(c)
	if !ok {
		return
	}

	var req dto.BatchBurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	amounts, _ := dto.ParseAmounts(req.Amounts)

	if err := h.ledger.BatchBurnFrom(c.Request.Context(), caller, holder, toClassIDs(req.ClassIDs), amounts); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK)
}

// Transfer moves balance between holders
func (h *handler) Transfer(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	amount, _ := dto.ParseAmount(req.Amount)

	from := domain.NormalizeAddress(req.From)
	to := domain.NormalizeAddress(req.To)
	if err := h.ledger.Transfer(c.Request.Context(), caller, from, to, domain.ClassID(req.ClassID), amount, req.AuxData); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK)
}

// BatchTransfer moves balances across classes between holders atomically
func (h *handler) BatchTransfer(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	var req dto.BatchTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}
	amounts, _ := dto.ParseAmounts(req.Amounts)

	from := domain.NormalizeAddress(req.From)
	to := domain.NormalizeAddress(req.To)
	err := h.ledger.BatchTransfer(c.Request.Context(), caller, from, to, toClassIDs(req.ClassIDs), amounts, req.AuxData)
	if err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK)
}

// SetTransfersGate flips the global transfer gate
func (h *handler) SetTransfersGate(c *gin.Context) {
	h.setGate(c, h.ledger.SetTransfersEnabled)
}

// SetMarketGate flips the global market gate
func (h *handler) SetMarketGate(c *gin.Context) {
	h.setGate(c, h.ledger.SetMarketEnabled)
}

func (h *handler) setGate(c *gin.Context, set func(ctx context.Context, caller domain.Address, enabled bool) error) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	var req dto.SetGateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := set(c.Request.Context(), caller, *req.Enabled); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GatesResponse{
		TransfersEnabled: h.ledger.TransfersEnabled(),
		MarketEnabled:    h.ledger.MarketEnabled(),
	})
}

// GetGates reports both global gates
func (h *handler) GetGates(c *gin.Context) {
	c.JSON(http.StatusOK, dto.GatesResponse{
		TransfersEnabled: h.ledger.TransfersEnabled(),
		MarketEnabled:    h.ledger.MarketEnabled(),
	})
}

// SetName changes the ledger display name
func (h *handler) SetName(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	var req dto.SetNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	if err := h.ledger.SetName(c.Request.Context(), caller, req.Name); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK)
}

// SetAdministrator hands the administrator role to a new address
func (h *handler) SetAdministrator(c *gin.Context) {
	caller, ok := h.requireCaller(c)
	if !ok {
		return
	}

	var req dto.SetAdministratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	if err := req.Validate(); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	newAdmin := domain.NormalizeAddress(req.Administrator)
	if err := h.ledger.TransferAdministration(c.Request.Context(), caller, newAdmin); err != nil {
		respondLedgerError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OK)
}

// GetLedgerInfo describes the ledger identity
func (h *handler) GetLedgerInfo(c *gin.Context) {
	c.JSON(http.StatusOK, dto.LedgerInfoResponse{
		Name:             h.ledger.Name(),
		Administrator:    h.ledger.Administrator().String(),
		ClassCount:       h.ledger.ClassCount(),
		TransfersEnabled: h.ledger.TransfersEnabled(),
		MarketEnabled:    h.ledger.MarketEnabled(),
	})
}

// ListClasses lists the registered token classes
func (h *handler) ListClasses(c *gin.Context) {
	classes := h.ledger.Classes()
	response := dto.ClassListResponse{
		Classes: make([]dto.ClassResponse, len(classes)),
		Total:   h.ledger.ClassCount(),
	}
	for i, class := range classes {
		response.Classes[i] = dto.ClassResponse{
			ID:             uint64(class.ID),
			MetadataSuffix: class.MetadataSuffix,
		}
	}
	c.JSON(http.StatusOK, response)
}

// GetClassURI resolves the metadata locator of a class
func (h *handler) GetClassURI(c *gin.Context) {
	classID, ok := classIDParam(c)
	if !ok {
		return
	}

	uri, err := h.ledger.ResolveMetadata(classID)
	if err != nil {
		respondNotFound(c, "Unknown token class")
		return
	}

	c.JSON(http.StatusOK, dto.MetadataResponse{
		ClassID: uint64(classID),
		URI:     uri,
	})
}

// GetBalance returns one holder's balance for one class
func (h *handler) GetBalance(c *gin.Context) {
	holder, ok := holderParam(c)
	if !ok {
		return
	}
	classID, ok := classIDParam(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, dto.BalanceResponse{
		Holder:  holder.String(),
		ClassID: uint64(classID),
		Amount:  dto.FormatAmount(h.ledger.BalanceOf(holder, classID)),
	})
}

// HealthCheck returns the health status of the API
func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "ff-token-ledger",
	})
}
