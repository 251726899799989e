package rest_test

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/ff-token-ledger/internal/api/middleware"
	"github.com/feral-file/ff-token-ledger/internal/api/rest"
	"github.com/feral-file/ff-token-ledger/internal/domain"
	"github.com/feral-file/ff-token-ledger/internal/logger"
	"github.com/feral-file/ff-token-ledger/internal/runtime"
)

const (
	adminAddr = "0xadmin"
	aliceAddr = "0xalice"
	bobAddr   = "0xbob"
	apiKey    = "test-api-key"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	if err := logger.Initialize(logger.Config{Debug: true}); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type testServer struct {
	router  *gin.Engine
	runtime *runtime.Runtime
	signKey *rsa.PrivateKey
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	publicKeyDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	require.NoError(t, err)
	publicKeyPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicKeyDER})

	rt, err := runtime.New(context.Background(), runtime.Config{
		Seed: runtime.Seed{
			Administrator:       adminAddr,
			Name:                "Test Ledger",
			BaseMetadataLocator: "https://meta.example.com/",
		},
	})
	require.NoError(t, err)

	router := gin.New()
	handler := rest.NewHandler(rt)
	rest.SetupRoutes(router, handler, middleware.AuthConfig{
		JWTPublicKey: string(publicKeyPEM),
		APIKeys:      []string{apiKey},
	})

	return &testServer{router: router, runtime: rt, signKey: privateKey}
}

// jwtFor signs a token whose subject is the caller address
func (s *testServer) jwtFor(t *testing.T, subject string) string {
	t.Helper()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(s.signKey)
	require.NoError(t, err)
	return "Bearer " + token
}

func (s *testServer) apiKeyHeader() string {
	return "APIKey " + apiKey
}

func (s *testServer) do(t *testing.T, method, path, auth string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// createClass registers a class as the administrator and returns its id
func (s *testServer) createClass(t *testing.T, suffix string) uint64 {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/classes", s.apiKeyHeader(), gin.H{"metadata_suffix": suffix})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		ClassID uint64 `json:"class_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.ClassID
}

func (s *testServer) mint(t *testing.T, holder string, classID uint64, amount string) {
	t.Helper()
	path := fmt.Sprintf("/api/v1/classes/%d/mint", classID)
	w := s.do(t, http.MethodPost, path, s.apiKeyHeader(), gin.H{
		"holder": holder,
		"amount": amount,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
}

func TestCreateClass(t *testing.T) {
	s := newTestServer(t)

	assert.Equal(t, uint64(0), s.createClass(t, "gold.json"))
	assert.Equal(t, uint64(1), s.createClass(t, "silver.json"))

	w := s.do(t, http.MethodGet, "/api/v1/classes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Classes []struct {
			ID             uint64 `json:"id"`
			MetadataSuffix string `json:"metadata_suffix"`
		} `json:"classes"`
		Total uint64 `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint64(2), resp.Total)
	require.Len(t, resp.Classes, 2)
	assert.Equal(t, "gold.json", resp.Classes[0].MetadataSuffix)
}

func TestCreateClass_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name       string
		auth       string
		wantStatus int
	}{
		{name: "missing header", auth: "", wantStatus: http.StatusUnauthorized},
		{name: "bad api key", auth: "APIKey wrong-key", wantStatus: http.StatusUnauthorized},
		{name: "malformed header", auth: "garbage", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, http.MethodPost, "/api/v1/classes", tt.auth, gin.H{"metadata_suffix": "a.json"})
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestCreateClass_NonAdminForbidden(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPost, "/api/v1/classes", s.jwtFor(t, aliceAddr), gin.H{"metadata_suffix": "a.json"})

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "forbidden")
}

func TestMintAndBalance(t *testing.T) {
	s := newTestServer(t)
	s.createClass(t, "gold.json")

	w := s.do(t, http.MethodPost, "/api/v1/classes/0/mint", s.apiKeyHeader(), gin.H{
		"holder": aliceAddr,
		"amount": "150",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"amount":"150"`)

	w = s.do(t, http.MethodGet, "/api/v1/holders/"+aliceAddr+"/balances/0", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"amount":"150"`)

	// Unknown holders read as zero
	w = s.do(t, http.MethodGet, "/api/v1/holders/"+bobAddr+"/balances/0", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"amount":"0"`)
}

func TestMint_Validation(t *testing.T) {
	s := newTestServer(t)
	s.createClass(t, "gold.json")

	tests := []struct {
		name       string
		body       gin.H
		wantStatus int
	}{
		{
			name:       "missing amount",
			body:       gin.H{"holder": aliceAddr},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "non-numeric amount",
			body:       gin.H{"holder": aliceAddr, "amount": "12x"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "negative amount",
			body:       gin.H{"holder": aliceAddr, "amount": "-5"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "missing holder",
			body:       gin.H{"amount": "5"},
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "unknown class",
			body:       gin.H{"holder": aliceAddr, "amount": "5"},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/api/v1/classes/0/mint"
			if tt.name == "unknown class" {
				path = "/api/v1/classes/99/mint"
			}
			w := s.do(t, http.MethodPost, path, s.apiKeyHeader(), tt.body)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}

func TestBatchMint_LengthMismatch(t *testing.T) {
	s := newTestServer(t)
	s.createClass(t, "gold.json")

	w := s.do(t, http.MethodPost, "/api/v1/mint/batch", s.apiKeyHeader(), gin.H{
		"holders":   []string{aliceAddr, bobAddr},
		"class_ids": []uint64{0},
		"amounts":   []string{"1", "2"},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
}

func TestBatchMint(t *testing.T) {
	s := newTestServer(t)
	s.createClass(t, "gold.json")
	s.createClass(t, "silver.json")

	w := s.do(t, http.MethodPost, "/api/v1/mint/batch", s.apiKeyHeader(), gin.H{
		"holders":   []string{aliceAddr, bobAddr},
		"class_ids": []uint64{0, 1},
		"amounts":   []string{"10", "20"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, uint64(10), s.runtime.BalanceOf(aliceAddr, 0))
	assert.Equal(t, uint64(20), s.runtime.BalanceOf(bobAddr, 1))
}

func TestBurn(t *testing.T) {
	s := newTestServer(t)
	s.createClass(t, "gold.json")
	s.mint(t, aliceAddr, 0, "100")

	// Holders burn their own balance
	w := s.do(t, http.MethodPost, "/api/v1/burn", s.jwtFor(t, aliceAddr), gin.H{
		"class_id": 0,
		"amount":   "40",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"amount":"60"`)

	// Burning more than held is refused
	w = s.do(t, http.MethodPost, "/api/v1/burn", s.jwtFor(t, aliceAddr), gin.H{
		"class_id": 0,
		"amount":   "1000",
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	assert.Equal(t, uint64(60), s.runtime.BalanceOf(aliceAddr, 0))
}

func TestBurnFrom_AdminOnly(t *testing.T) {
	s := newTestServer(t)
	s.createClass(t, "gold.json")
	s.mint(t, aliceAddr, 0, "100")

	// Non-admin cannot burn another holder's balance
	w := s.do(t, http.MethodPost, "/api/v1/holders/"+aliceAddr+"/burn", s.jwtFor(t, bobAddr), gin.H{
		"class_id": 0,
		"amount":   "10",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// Administrator can
	w = s.do(t, http.MethodPost, "/api/v1/holders/"+aliceAddr+"/burn", s.apiKeyHeader(), gin.H{
		"class_id": 0,
		"amount":   "10",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint64(90), s.runtime.BalanceOf(aliceAddr, 0))
}

func TestTransfer_GateEnforcement(t *testing.T) {
	s := newTestServer(t)
	s.createClass(t, "gold.json")
	s.mint(t, aliceAddr, 0, "100")

	transferBody := gin.H{
		"from":     aliceAddr,
		"to":       bobAddr,
		"class_id": 0,
		"amount":   "25",
	}

	// Transfers start disabled: holder transfers are refused
	w := s.do(t, http.MethodPost, "/api/v1/transfer", s.jwtFor(t, aliceAddr), transferBody)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// The administrator bypasses the gate
	w = s.do(t, http.MethodPost, "/api/v1/transfer", s.apiKeyHeader(), transferBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint64(25), s.runtime.BalanceOf(bobAddr, 0))

	// Enable transfers
	w = s.do(t, http.MethodPut, "/api/v1/gates/transfers", s.apiKeyHeader(), gin.H{"enabled": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"transfers_enabled":true`)

	// Holder can now move their own balance
	w = s.do(t, http.MethodPost, "/api/v1/transfer", s.jwtFor(t, aliceAddr), transferBody)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, uint64(50), s.runtime.BalanceOf(bobAddr, 0))

	// But not someone else's
	w = s.do(t, http.MethodPost, "/api/v1/transfer", s.jwtFor(t, bobAddr), transferBody)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGates_MarketIndependent(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/v1/gates/market", s.apiKeyHeader(), gin.H{"enabled": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/gates", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"transfers_enabled":false`)
	assert.Contains(t, w.Body.String(), `"market_enabled":true`)
}

func TestSetName(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/v1/name", s.apiKeyHeader(), gin.H{"name": "Renamed Ledger"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Renamed Ledger", s.runtime.Name())

	// Empty name is refused before reaching the ledger
	w = s.do(t, http.MethodPut, "/api/v1/name", s.apiKeyHeader(), gin.H{"name": ""})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestSetAdministrator(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodPut, "/api/v1/administrator", s.apiKeyHeader(), gin.H{"administrator": aliceAddr})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, domain.Address(aliceAddr), s.runtime.Administrator())

	// API key callers now act as the new administrator
	w = s.do(t, http.MethodPost, "/api/v1/classes", s.apiKeyHeader(), gin.H{"metadata_suffix": "a.json"})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestGetClassURI(t *testing.T) {
	s := newTestServer(t)
	s.createClass(t, "gold.json")

	w := s.do(t, http.MethodGet, "/api/v1/classes/0/uri", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://meta.example.com/gold.json")

	w = s.do(t, http.MethodGet, "/api/v1/classes/42/uri", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetLedgerInfo(t *testing.T) {
	s := newTestServer(t)
	s.createClass(t, "gold.json")

	w := s.do(t, http.MethodGet, "/api/v1/ledger", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"Test Ledger"`)
	assert.Contains(t, w.Body.String(), `"administrator":"0xadmin"`)
	assert.Contains(t, w.Body.String(), `"class_count":1`)
}
