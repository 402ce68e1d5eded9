package handler

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/schoolcounsel/counsel-admin/internal/core/domain"
	"github.com/schoolcounsel/counsel-admin/internal/core/ports"
	"github.com/schoolcounsel/counsel-admin/internal/infrastructure/roster"
)

// RosterParser turns an uploaded file into a roster; the filename selects
// the format.
type RosterParser func(r io.Reader, filename string) (domain.Roster, error)

// ImportHandler serves the admin roster upload endpoints.
type ImportHandler struct {
	provisioner ports.ProvisioningService
	parse       RosterParser
}

func NewImportHandler(provisioner ports.ProvisioningService, parse RosterParser) *ImportHandler {
	if parse == nil {
		parse = roster.Parse
	}
	return &ImportHandler{provisioner: provisioner, parse: parse}
}

// Preview parses the uploaded roster without writing anything.
//
// @Summary      Preview a roster file
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file   formData  file    true   "Roster (.tsv or .xlsx)"
// @Param        limit  query     int     false  "Rows to render (default 300)"
// @Success      200    {object}  previewResponse
// @Failure      400    {object}  errorResponse
// @Router       /admin/imports/preview [post]
func (h *ImportHandler) Preview(c echo.Context) error {
	r, filename, err := h.readRoster(c)
	if err != nil {
		return err
	}

	limit := roster.DefaultPreviewRows
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = n
	}

	return c.JSON(http.StatusOK, previewResponse{
		Filename: filename,
		Columns:  r.Columns,
		Rows:     r.Len(),
		Preview:  roster.Preview(r, limit),
	})
}

// Import saves the uploaded roster and provisions accounts for it.
//
// @Summary      Import a roster
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        target  formData  string  true  "student or teacher"
// @Param        file    formData  file    true  "Roster (.tsv or .xlsx)"
// @Success      200     {object}  importResponse
// @Failure      400     {object}  errorResponse
// @Failure      422     {object}  errorResponse
// @Router       /admin/imports [post]
func (h *ImportHandler) Import(c echo.Context) error {
	target, err := domain.ParseImportTarget(c.FormValue("target"))
	if err != nil {
		return err
	}

	r, _, err := h.readRoster(c)
	if err != nil {
		return err
	}

	res, err := h.provisioner.Import(c.Request().Context(), target, r)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, importResponse{
		RunID:     res.RunID,
		Target:    string(res.Target),
		Processed: res.Processed,
		Created:   res.Created,
		Skipped:   res.Skipped,
	})
}

func (h *ImportHandler) readRoster(c echo.Context) (domain.Roster, string, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return domain.Roster{}, "", echo.NewHTTPError(http.StatusBadRequest, "roster file is required")
	}
	src, err := fh.Open()
	if err != nil {
		return domain.Roster{}, "", echo.NewHTTPError(http.StatusBadRequest, "cannot read uploaded file")
	}
	defer src.Close()

	r, err := h.parse(src, fh.Filename)
	if err != nil {
		return domain.Roster{}, "", err
	}
	return r, fh.Filename, nil
}
