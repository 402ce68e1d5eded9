package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
	"github.com/schoolcounsel/counsel-admin/internal/core/ports"
	"github.com/schoolcounsel/counsel-admin/internal/infrastructure/roster"
)

type stubProvisioner struct {
	importFn func(ctx context.Context, target domain.ImportTarget, r domain.Roster) (*ports.ImportResult, error)
}

func (s *stubProvisioner) Import(ctx context.Context, target domain.ImportTarget, r domain.Roster) (*ports.ImportResult, error) {
	return s.importFn(ctx, target, r)
}

func (s *stubProvisioner) ImportStudents(ctx context.Context, r domain.Roster) (*ports.ImportResult, error) {
	return s.importFn(ctx, domain.TargetStudent, r)
}

func (s *stubProvisioner) ImportTeachers(ctx context.Context, r domain.Roster) (*ports.ImportResult, error) {
	return s.importFn(ctx, domain.TargetTeacher, r)
}

const studentTSV = "학번\t이름\tclass\n20240001\tKim\t1-1\n20240002\tLee\t1-2\n"

func uploadRequest(t *testing.T, path, filename, content string, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		part, err := w.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := io.WriteString(part, content); err != nil {
			t.Fatalf("write file: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	return req
}

func TestImportHandler_Preview(t *testing.T) {
	e := newEcho()
	handler := NewImportHandler(&stubProvisioner{}, nil)

	rec := httptest.NewRecorder()
	req := uploadRequest(t, "/admin/imports/preview?limit=1", "roster.tsv", studentTSV, nil)
	c := e.NewContext(req, rec)

	if err := handler.Preview(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp previewResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Filename != "roster.tsv" || resp.Rows != 2 || len(resp.Columns) != 3 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if len(resp.Preview) != 1 || resp.Preview[0] != "학번=20240001, 이름=Kim, class=1-1" {
		t.Fatalf("unexpected preview: %q", resp.Preview)
	}
}

func TestImportHandler_Preview_BadLimit(t *testing.T) {
	c := newEcho().NewContext(uploadRequest(t, "/admin/imports/preview?limit=zero", "roster.tsv", studentTSV, nil), httptest.NewRecorder())

	err := NewImportHandler(&stubProvisioner{}, nil).Preview(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestImportHandler_Import(t *testing.T) {
	e := newEcho()
	var got domain.Roster
	stub := &stubProvisioner{
		importFn: func(ctx context.Context, target domain.ImportTarget, r domain.Roster) (*ports.ImportResult, error) {
			if target != domain.TargetStudent {
				t.Fatalf("unexpected target %q", target)
			}
			got = r
			return &ports.ImportResult{RunID: "run-1", Target: target, Processed: 2, Created: 2}, nil
		},
	}

	rec := httptest.NewRecorder()
	req := uploadRequest(t, "/admin/imports", "roster.tsv", studentTSV, map[string]string{"target": "학생"})
	c := e.NewContext(req, rec)

	if err := NewImportHandler(stub, nil).Import(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if got.Len() != 2 {
		t.Fatalf("expected 2 parsed rows, got %d", got.Len())
	}

	var resp importResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.RunID != "run-1" || resp.Target != "student" || resp.Processed != 2 || resp.Created != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestImportHandler_Import_Errors(t *testing.T) {
	never := &stubProvisioner{
		importFn: func(ctx context.Context, target domain.ImportTarget, r domain.Roster) (*ports.ImportResult, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}

	cases := []struct {
		name     string
		filename string
		target   string
		check    func(error) bool
	}{
		{"unknown target", "roster.tsv", "parents", func(err error) bool { return errors.Is(err, domain.ErrValidation) }},
		{"missing file", "", "student", func(err error) bool {
			var he *echo.HTTPError
			return errors.As(err, &he) && he.Code == http.StatusBadRequest
		}},
		{"unsupported format", "roster.csv", "student", func(err error) bool { return errors.Is(err, roster.ErrUnsupportedFormat) }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := uploadRequest(t, "/admin/imports", tc.filename, studentTSV, map[string]string{"target": tc.target})
			c := newEcho().NewContext(req, httptest.NewRecorder())

			if err := NewImportHandler(never, nil).Import(c); !tc.check(err) {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestImportHandler_Import_MissingColumn(t *testing.T) {
	missing := &domain.MissingColumnError{Target: domain.TargetTeacher, Field: domain.FieldName, Accepted: domain.TeacherNameColumns}
	stub := &stubProvisioner{
		importFn: func(ctx context.Context, target domain.ImportTarget, r domain.Roster) (*ports.ImportResult, error) {
			return nil, missing
		},
	}
	parse := func(io.Reader, string) (domain.Roster, error) {
		return domain.Roster{Columns: []string{"subject"}}, nil
	}

	req := uploadRequest(t, "/admin/imports", "teachers.xlsx", "ignored", map[string]string{"target": "teacher"})
	c := newEcho().NewContext(req, httptest.NewRecorder())

	if err := NewImportHandler(stub, parse).Import(c); !errors.Is(err, domain.ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
}
