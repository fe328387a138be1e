package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abodd44/hashdocker-document-hub/internal/conversion"
	"github.com/abodd44/hashdocker-document-hub/internal/document"
	"github.com/abodd44/hashdocker-document-hub/internal/seed"
)

type documentResponse struct {
	Document document.Document `json:"document"`
	Message  string            `json:"message"`
}

type documentsResponse struct {
	Documents []document.Document `json:"documents"`
}

func (e *testEnv) upload(t *testing.T, token string, fields map[string]string, fileName string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, fields, fileName, content)
	return e.do(t, http.MethodPost, "/api/v1/documents", token, body, ct)
}

func TestUploadSubmission(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(t, seed.StudentID)
	ctx := context.Background()
	before, err := e.notifs.UnreadCount(ctx, seed.AdminID)
	require.NoError(t, err)

	w := e.upload(t, tok, map[string]string{"title": "Lab Report 3", "type": "homework", "courseId": "CS101"}, "report.pdf", pdfBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp documentResponse
	decode(t, w, &resp)
	assert.Equal(t, "Document uploaded successfully", resp.Message)
	assert.Equal(t, document.StatusPending, resp.Document.Status)
	assert.False(t, resp.Document.IsDraft)
	assert.Equal(t, "application/pdf", resp.Document.ContentType)
	assert.Equal(t, "report.pdf", resp.Document.OriginalFileName)

	after, err := e.notifs.UnreadCount(ctx, seed.AdminID)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)

	id := resp.Document.ID
	require.Eventually(t, func() bool {
		r := e.do(t, http.MethodGet, "/api/v1/documents/"+id+"/conversion", tok, nil, "")
		if r.Code != http.StatusOK {
			return false
		}
		var job conversion.Job
		decode(t, r, &job)
		return job.Status == conversion.StatusReady
	}, 2*time.Second, 10*time.Millisecond)

	r := e.do(t, http.MethodGet, "/api/v1/documents/"+id+"/preview", tok, nil, "")
	require.Equal(t, http.StatusOK, r.Code)
	assert.Equal(t, pdfBody, r.Body.Bytes())
}

func TestUploadDraftDoesNotNotify(t *testing.T) {
	e := newTestEnv(t)
	tok := e.token(t, seed.StudentID)
	w := e.upload(t, tok, map[string]string{"title": "Draft essay", "type": "other", "draft": "true"}, "essay.txt", []byte("plain words for a draft essay\n"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp documentResponse
	decode(t, w, &resp)
	assert.True(t, resp.Document.IsDraft)

	n, err := e.notifs.UnreadCount(context.Background(), seed.AdminID)
	require.NoError(t, err)
	assert.Zero(t, n)

	r := e.do(t, http.MethodGet, "/api/v1/documents/drafts", tok, nil, "")
	require.Equal(t, http.StatusOK, r.Code)
	var drafts documentsResponse
	decode(t, r, &drafts)
	assert.Len(t, drafts.Documents, 2)
}

func TestUploadRejections(t *testing.T) {
	e := newTestEnv(t)
	student := e.token(t, seed.StudentID)
	admin := e.token(t, seed.AdminID)
	tooBig := append(append([]byte{}, pdfBody...), bytes.Repeat([]byte("0"), 1<<20)...)

	cases := []struct {
		name     string
		token    string
		fields   map[string]string
		file     string
		content  []byte
		code     int
		contains string
	}{
		{"admin", admin, map[string]string{"title": "Admin file", "type": "other"}, "a.pdf", pdfBody, http.StatusForbidden, ""},
		{"short title", student, map[string]string{"title": "ab", "type": "other"}, "a.pdf", pdfBody, http.StatusBadRequest, "title"},
		{"bad type", student, map[string]string{"title": "Valid title", "type": "essay"}, "a.pdf", pdfBody, http.StatusBadRequest, "type"},
		{"missing file", student, map[string]string{"title": "Valid title", "type": "other"}, "", nil, http.StatusBadRequest, "file"},
		{"audio", student, map[string]string{"title": "Valid title", "type": "other"}, "song.pdf", []byte("ID3\x03\x00\x00\x00\x00\x00\x00audio"), http.StatusUnsupportedMediaType, ""},
		{"too large", student, map[string]string{"title": "Valid title", "type": "other"}, "big.pdf", tooBig, http.StatusRequestEntityTooLarge, "1 MB"},
		{"not enrolled", student, map[string]string{"title": "Valid title", "type": "other", "courseId": "BIO999"}, "a.pdf", pdfBody, http.StatusBadRequest, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := e.upload(t, tc.token, tc.fields, tc.file, tc.content)
			require.Equal(t, tc.code, w.Code, w.Body.String())
			if tc.contains != "" {
				assert.Contains(t, w.Body.String(), tc.contains)
			}
		})
	}
}

func TestListingsAndStats(t *testing.T) {
	e := newTestEnv(t)
	student := e.token(t, seed.StudentID)
	admin := e.token(t, seed.AdminID)

	w := e.do(t, http.MethodGet, "/api/v1/documents", student, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var list documentsResponse
	decode(t, w, &list)
	require.Len(t, list.Documents, 2)
	assert.Equal(t, "2", list.Documents[0].ID, "newest first")

	w = e.do(t, http.MethodGet, "/api/v1/documents?status=approved", student, nil, "")
	decode(t, w, &list)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, "1", list.Documents[0].ID)

	w = e.do(t, http.MethodGet, "/api/v1/documents?status=archived", student, nil, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/documents/pending", student, nil, "")
	require.Equal(t, http.StatusForbidden, w.Code)
	w = e.do(t, http.MethodGet, "/api/v1/documents/pending", admin, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, "2", list.Documents[0].ID)

	w = e.do(t, http.MethodGet, "/api/v1/documents/search?q=MEDICAL&status=all", admin, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list.Documents, 1)
	assert.Equal(t, "2", list.Documents[0].ID)

	w = e.do(t, http.MethodGet, "/api/v1/documents/stats", student, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var st document.StudentStats
	decode(t, w, &st)
	assert.Equal(t, document.StudentStats{Total: 2, Pending: 1, Approved: 1, Drafts: 1}, st)

	w = e.do(t, http.MethodGet, "/api/v1/documents/stats", admin, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var ast document.AdminStats
	decode(t, w, &ast)
	assert.Equal(t, 2, ast.Total)
	assert.Equal(t, 1, ast.Pending)
	assert.Len(t, ast.Recent, 2)
}

func TestDocumentVisibility(t *testing.T) {
	e := newTestEnv(t)
	other := e.token(t, otherStudentID)
	admin := e.token(t, seed.AdminID)

	assert.Equal(t, http.StatusForbidden, e.do(t, http.MethodGet, "/api/v1/documents/1", other, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/v1/documents/draft-1", other, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/v1/documents/draft-1", admin, nil, "").Code)
	assert.Equal(t, http.StatusOK, e.do(t, http.MethodGet, "/api/v1/documents/1", admin, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/v1/documents/missing", admin, nil, "").Code)
}

func TestReviewFlow(t *testing.T) {
	e := newTestEnv(t)
	student := e.token(t, seed.StudentID)
	admin := e.token(t, seed.AdminID)

	w := e.json(t, http.MethodPost, "/api/v1/documents/2/approve", student, obj{})
	require.Equal(t, http.StatusForbidden, w.Code)

	w = e.json(t, http.MethodPost, "/api/v1/documents/2/review", admin, obj{"decision": "maybe"})
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = e.json(t, http.MethodPost, "/api/v1/documents/2/reject", admin, obj{"comments": "Please attach the signed note."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp documentResponse
	decode(t, w, &resp)
	assert.Equal(t, document.StatusRejected, resp.Document.Status)
	assert.Equal(t, seed.AdminID, resp.Document.ReviewedBy)
	assert.Equal(t, "Please attach the signed note.", resp.Document.Comments)

	w = e.do(t, http.MethodPost, "/api/v1/documents/2/approve", admin, nil, "")
	require.Equal(t, http.StatusConflict, w.Code)

	items, err := e.notifs.List(context.Background(), seed.StudentID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Document Rejected", items[0].Title)
	assert.Contains(t, items[0].Message, "Please attach the signed note.")

	// reviewed documents are no longer editable by their owner
	body, ct := multipartBody(t, map[string]string{"title": "New title"}, "", nil)
	w = e.do(t, http.MethodPatch, "/api/v1/documents/2", student, body, ct)
	require.Equal(t, http.StatusConflict, w.Code)
}

func TestUpdateSubmitAndDelete(t *testing.T) {
	e := newTestEnv(t)
	student := e.token(t, seed.StudentID)
	admin := e.token(t, seed.AdminID)

	body, ct := multipartBody(t, map[string]string{"title": "Grade Review - Final Exam (v2)"}, "review.pdf", pdfBody)
	w := e.do(t, http.MethodPatch, "/api/v1/documents/draft-1", student, body, ct)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp documentResponse
	decode(t, w, &resp)
	assert.Equal(t, "Grade Review - Final Exam (v2)", resp.Document.Title)
	assert.Equal(t, "review.pdf", resp.Document.OriginalFileName)
	assert.Equal(t, document.TypeGradeReview, resp.Document.Type)

	w = e.do(t, http.MethodPost, "/api/v1/documents/draft-1/submit", student, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &resp)
	assert.False(t, resp.Document.IsDraft)

	w = e.do(t, http.MethodPost, "/api/v1/documents/draft-1/submit", student, nil, "")
	require.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/documents/pending", admin, nil, "")
	var list documentsResponse
	decode(t, w, &list)
	assert.Len(t, list.Documents, 2)

	w = e.do(t, http.MethodDelete, "/api/v1/documents/1", student, nil, "")
	require.Equal(t, http.StatusConflict, w.Code, "approved documents stay")

	w = e.do(t, http.MethodDelete, "/api/v1/documents/2", student, nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, http.StatusNotFound, e.do(t, http.MethodGet, "/api/v1/documents/2", student, nil, "").Code)
	assert.False(t, e.blobs.Exists("documents/"+seed.StudentID+"/2/medical_note.docx"))

	w = e.do(t, http.MethodDelete, "/api/v1/documents/1", admin, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDownloadAndPreview(t *testing.T) {
	e := newTestEnv(t)
	student := e.token(t, seed.StudentID)
	other := e.token(t, otherStudentID)

	w := e.do(t, http.MethodGet, "/api/v1/documents/1/file", student, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Placeholder for assignment.docx\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), `attachment; filename="assignment.docx"`)

	// office files are not rendered, so their preview keeps the real media type
	w = e.do(t, http.MethodGet, "/api/v1/documents/1/preview", student, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `attachment; filename="assignment.docx"`)
	assert.Equal(t, "Placeholder for assignment.docx\n", w.Body.String())

	w = e.do(t, http.MethodGet, "/api/v1/documents/draft-1/preview", student, nil, "")
	require.Equal(t, http.StatusConflict, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/documents/1/file", other, nil, "")
	require.Equal(t, http.StatusForbidden, w.Code)

	w = e.do(t, http.MethodGet, "/api/v1/documents/1/conversion", student, nil, "")
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreviewOfPDFIsInline(t *testing.T) {
	e := newTestEnv(t)
	student := e.token(t, seed.StudentID)

	w := e.upload(t, student, map[string]string{"title": "Medical note", "type": "other"}, "note.pdf", pdfBody)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp documentResponse
	decode(t, w, &resp)

	require.Eventually(t, func() bool {
		w = e.do(t, http.MethodGet, "/api/v1/documents/"+resp.Document.ID+"/preview", student, nil, "")
		return w.Code == http.StatusOK
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), `inline; filename="note.pdf"`)
}

func TestUpdateWithoutChangesIsRejected(t *testing.T) {
	e := newTestEnv(t)
	student := e.token(t, seed.StudentID)

	body, ct := multipartBody(t, map[string]string{}, "", nil)
	w := e.do(t, http.MethodPatch, "/api/v1/documents/draft-1", student, body, ct)
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "nothing to update")

	w = e.do(t, http.MethodGet, "/api/v1/documents/draft-1", student, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	var resp documentResponse
	decode(t, w, &resp)
	assert.Equal(t, "Grade Review - Final Exam", resp.Document.Title)
}
