package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"teamvault/internal/platform/crypto"
	"teamvault/internal/service"
	"teamvault/internal/store/blob"
	"teamvault/internal/store/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const testSigningKey = "test-signing-key"

// newTestServer assembles the full router over in-memory stores, matching the
// wiring in cmd/server but without Mongo, Redis or S3.
func newTestServer(t *testing.T) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	folders := memory.NewFolderStore()
	items := memory.NewItemStore()
	pins := memory.NewPinStore()

	hasher := crypto.NewBcryptPinHasher(bcrypt.MinCost)
	pinSvc := service.NewPinService(pins, hasher, 6000, 100, logger)
	folderSvc := service.NewFolderService(folders, items)
	vaultSvc := service.NewVaultService(items, folders, blob.NewInlineStore(), nil, "test-master-secret", 1<<20, logger)

	auth := NewAuthMiddleware(crypto.NewJWTVerifier(testSigningKey))
	return NewRouter(
		auth,
		NewPinHandler(pinSvc),
		NewFolderHandler(folderSvc),
		NewFileHandler(vaultSvc, 1<<20),
		logger,
	)
}

// signToken mints a bearer token the way the identity service does.
func signToken(t *testing.T, userID, orgID bson.ObjectID) string {
	t.Helper()
	claims := &crypto.Claims{
		UserID:         userID,
		OrganizationID: orgID,
		Email:          "tester@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)
	return signed
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

func TestAuthRequired(t *testing.T) {
	h := newTestServer(t)

	t.Run("missing header", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/vault/has-pin", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/vault/has-pin", "not-a-jwt", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		claims := &crypto.Claims{UserID: bson.NewObjectID(), OrganizationID: bson.NewObjectID()}
		forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-key"))
		require.NoError(t, err)
		rec := doJSON(t, h, http.MethodGet, "/vault/has-pin", forged, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("health is open", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodGet, "/health", "", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestPinLifecycle(t *testing.T) {
	h := newTestServer(t)
	token := signToken(t, bson.NewObjectID(), bson.NewObjectID())

	var hasPin struct {
		HasPin bool `json:"hasPin"`
	}
	rec := doJSON(t, h, http.MethodGet, "/vault/has-pin", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &hasPin)
	assert.False(t, hasPin.HasPin)

	rec = doJSON(t, h, http.MethodPost, "/vault/set-pin", token, map[string]string{"pin": "123456"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/vault/has-pin", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &hasPin)
	assert.True(t, hasPin.HasPin)

	// A second set-pin must not overwrite the existing one.
	rec = doJSON(t, h, http.MethodPost, "/vault/set-pin", token, map[string]string{"pin": "654321"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	var verify struct {
		Valid bool `json:"valid"`
	}
	rec = doJSON(t, h, http.MethodPost, "/vault/verify-pin", token, map[string]string{"pin": "000000"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &verify)
	assert.False(t, verify.Valid)

	rec = doJSON(t, h, http.MethodPost, "/vault/verify-pin", token, map[string]string{"pin": "123456"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &verify)
	assert.True(t, verify.Valid)

	rec = doJSON(t, h, http.MethodPost, "/vault/update-pin", token, map[string]string{"oldPin": "123456", "newPin": "777777"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/vault/verify-pin", token, map[string]string{"pin": "777777"})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &verify)
	assert.True(t, verify.Valid)

	t.Run("rejects non-numeric pin", func(t *testing.T) {
		rec := doJSON(t, h, http.MethodPost, "/vault/set-pin", signToken(t, bson.NewObjectID(), bson.NewObjectID()),
			map[string]string{"pin": "12ab56"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func uploadFile(t *testing.T, h http.Handler, token, folderID, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	if folderID != "" {
		require.NoError(t, mw.WriteField("folderId", folderID))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/vault/upload", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestFileLifecycleOverHTTP(t *testing.T) {
	h := newTestServer(t)
	orgID := bson.NewObjectID()
	ownerID := bson.NewObjectID()
	readerID := bson.NewObjectID()
	owner := signToken(t, ownerID, orgID)
	reader := signToken(t, readerID, orgID)

	// Folder, then an upload into it.
	rec := doJSON(t, h, http.MethodPost, "/vault/folders", owner, map[string]string{"name": "Contracts"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var folder struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &folder)
	require.NotEmpty(t, folder.ID)

	content := []byte("signed agreement body")
	rec = uploadFile(t, h, owner, folder.ID, "agreement.pdf", content)
	require.Equal(t, http.StatusCreated, rec.Code)
	var item struct {
		ID       string `json:"id"`
		FileName string `json:"fileName"`
		FileSize int64  `json:"fileSize"`
	}
	decodeBody(t, rec, &item)
	assert.Equal(t, "agreement.pdf", item.FileName)
	assert.Equal(t, int64(len(content)), item.FileSize)

	// Ciphertext and IV never appear in API responses.
	assert.NotContains(t, rec.Body.String(), "ciphertext")
	assert.NotContains(t, rec.Body.String(), "encryptionIV")

	rec = doJSON(t, h, http.MethodGet, "/vault/files?folderId="+folder.ID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "["))

	// Download round-trips the original bytes.
	rec = doJSON(t, h, http.MethodGet, "/vault/files/"+item.ID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.Bytes())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "agreement.pdf")

	// The reader has no grant yet.
	rec = doJSON(t, h, http.MethodGet, "/vault/files/"+item.ID, reader, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/vault/files/"+item.ID+"/share", owner,
		map[string]string{"userId": readerID.Hex(), "permission": "read"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/vault/files/"+item.ID, reader, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, content, rec.Body.Bytes())

	// Sharing and the audit trail stay owner-only.
	rec = doJSON(t, h, http.MethodPost, "/vault/files/"+item.ID+"/share", reader,
		map[string]string{"userId": bson.NewObjectID().Hex(), "permission": "read"})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/vault/files/"+item.ID+"/access-log", reader, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	// Only the owner may delete; afterwards the item reads as gone while the
	// audit trail remains reachable.
	rec = doJSON(t, h, http.MethodDelete, "/vault/files/"+item.ID, reader, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/vault/files/"+item.ID, owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/vault/files/"+item.ID, owner, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/vault/files/"+item.ID+"/access-log", owner, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var entries []struct {
		Action string `json:"action"`
	}
	decodeBody(t, rec, &entries)
	require.NotEmpty(t, entries)
	assert.Equal(t, "delete", entries[len(entries)-1].Action)
}

func TestFolderDeleteOverHTTP(t *testing.T) {
	h := newTestServer(t)
	token := signToken(t, bson.NewObjectID(), bson.NewObjectID())

	rec := doJSON(t, h, http.MethodPost, "/vault/folders", token, map[string]string{"name": "inbox"})
	require.Equal(t, http.StatusCreated, rec.Code)
	var folder struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &folder)

	rec = uploadFile(t, h, token, folder.ID, "keep.txt", []byte("k"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var item struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &item)

	// Occupied folders cannot be removed.
	rec = doJSON(t, h, http.MethodDelete, "/vault/folders/"+folder.ID, token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/vault/files/"+item.ID, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Soft-deleted items no longer hold the folder open.
	rec = doJSON(t, h, http.MethodDelete, "/vault/folders/"+folder.ID, token, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
