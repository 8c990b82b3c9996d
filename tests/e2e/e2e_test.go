//go:build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// baseURL points at a running API, e.g. started with docker compose.
var baseURL = envOr("DEPOT_E2E_BASE_URL", "http://localhost:8080")

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type resourceBody struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	FileType      string `json:"file_type"`
	PreviewURL    string `json:"preview_url"`
	DownloadCount int64  `json:"download_count"`
}

func TestMemberResourceWorkflow(t *testing.T) {
	client := &http.Client{Timeout: 30 * time.Second}

	// 1. Register
	email := fmt.Sprintf("e2e_%d@example.com", time.Now().UnixNano())
	registerBody, _ := json.Marshal(map[string]string{
		"email":        email,
		"password":     "password123",
		"display_name": "E2E Member",
	})
	resp, err := client.Post(baseURL+"/v1/auth/register", "application/json", bytes.NewReader(registerBody))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var authResp struct {
		Tokens struct {
			AccessToken string `json:"access_token"`
		} `json:"tokens"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&authResp))
	resp.Body.Close()
	token := authResp.Tokens.AccessToken
	require.NotEmpty(t, token)

	// 2. Upload a document with a preview
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("title", "E2E Thermodynamics Notes"))
	require.NoError(t, writer.WriteField("category", "Notes"))
	require.NoError(t, writer.WriteField("subject", "Physics"))
	writeFilePart(t, writer, "file", "notes.pdf", "application/pdf", "%PDF-1.4 e2e")
	writeFilePart(t, writer, "preview", "cover.png", "image/png", "png-bytes")
	require.NoError(t, writer.Close())

	req, _ := http.NewRequest(http.MethodPost, baseURL+"/v1/resources", &buf)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		Resource resourceBody `json:"resource"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.NotEmpty(t, created.Resource.ID)
	assert.Equal(t, "PDF", created.Resource.FileType)
	assert.NotEmpty(t, created.Resource.PreviewURL)

	// 3. Public search finds it
	resp, err = client.Get(baseURL + "/v1/resources?q=thermodynamics&category=Notes")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found struct {
		Resources []resourceBody `json:"resources"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&found))
	resp.Body.Close()
	ids := make([]string, 0, len(found.Resources))
	for _, r := range found.Resources {
		ids = append(ids, r.ID)
	}
	assert.Contains(t, ids, created.Resource.ID)

	// 4. Anonymous download is rejected, authenticated download streams the bytes
	resp, err = client.Get(baseURL + "/v1/resources/" + created.Resource.ID + "/download")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp.Body.Close()

	req, _ = http.NewRequest(http.MethodGet, baseURL+"/v1/resources/"+created.Resource.ID+"/download", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	content, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "%PDF-1.4 e2e", string(content))

	// 5. The counter is incremented asynchronously
	assert.Eventually(t, func() bool {
		resp, err := client.Get(baseURL + "/v1/resources/" + created.Resource.ID)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		var res resourceBody
		if json.NewDecoder(resp.Body).Decode(&res) != nil {
			return false
		}
		return res.DownloadCount == 1
	}, 5*time.Second, 100*time.Millisecond)

	// 6. The dashboard lists it
	req, _ = http.NewRequest(http.MethodGet, baseURL+"/v1/me/resources", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = client.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dashboard struct {
		ResourceCount int `json:"resource_count"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&dashboard))
	resp.Body.Close()
	assert.Equal(t, 1, dashboard.ResourceCount)

	// 7. Members cannot reach admin routes
	req, _ = http.NewRequest(http.MethodGet, baseURL+"/v1/admin/stats", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp.Body.Close()

	// 8. Owner deletes the resource
	req, _ = http.NewRequest(http.MethodDelete, baseURL+"/v1/resources/"+created.Resource.ID, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = client.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp, err = client.Get(baseURL + "/v1/resources/" + created.Resource.ID)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func writeFilePart(t *testing.T, w *multipart.Writer, field, name, contentType, body string) {
	t.Helper()
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, name))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(body))
	require.NoError(t, err)
}
