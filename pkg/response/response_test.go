package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/study-planner/pkg/errors"
)

func newContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, rec
}

func TestJSONWithMeta(t *testing.T) {
	c, rec := newContext()
	OK(c, map[string]string{"hello": "world"}, map[string]interface{}{"stale": true})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]interface{}{"hello": "world"}, body["data"])
	assert.Equal(t, true, body["meta"].(map[string]interface{})["stale"])
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestErrorTypedAndUntyped(t *testing.T) {
	c, rec := newContext()
	Error(c, appErrors.Clone(appErrors.ErrConflict, "subject already exists"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"CONFLICT"`)
	assert.Contains(t, rec.Body.String(), "subject already exists")

	c, rec = newContext()
	Error(c, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestAttachment(t *testing.T) {
	c, rec := newContext()
	Attachment(c, "deadlines.csv", "text/csv", []byte("a,b\n"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="deadlines.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", rec.Body.String())
}
