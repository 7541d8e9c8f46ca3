package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// アルバムの公開閲覧とフォトグラファー側の登録
type AlbumHandler struct {
	uc *usecase.AlbumUsecase
}

// DI
func NewAlbumHandler(uc *usecase.AlbumUsecase) *AlbumHandler {
	return &AlbumHandler{uc: uc}
}

func (h *AlbumHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	//公開（タイトル・表示名はURLエンコードされて届く）
	e.GET("/albums/:title", h.getPublicAlbum)
	e.GET("/photographers/:name/albums", h.listPhotographerAlbums)

	//フォトグラファーのみ
	g := e.Group("/albums")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.PhotographerGuard())
	g.POST("", h.createAlbum)
	g.PUT("/:id", h.updateAlbum)
	g.DELETE("/:id", h.deleteAlbum)
	g.POST("/:id/photos", h.uploadPhoto)
}

func (h *AlbumHandler) updateAlbum(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	albumID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req usecase.UpdateAlbumInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateAlbum(c.Request().Context(), userID, albumID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AlbumHandler) deleteAlbum(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	albumID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	if err := h.uc.DeleteAlbum(c.Request().Context(), userID, albumID); err != nil {
		return writeError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AlbumHandler) getPublicAlbum(c echo.Context) error {
	out, err := h.uc.GetPublicAlbum(c.Request().Context(), c.Param("title"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AlbumHandler) listPhotographerAlbums(c echo.Context) error {
	out, err := h.uc.ListPhotographerAlbums(c.Request().Context(), c.Param("name"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AlbumHandler) createAlbum(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	var req usecase.CreateAlbumInput
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CreateAlbum(c.Request().Context(), userID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// multipart：preview（透かし入り）とoriginal（原本）の2ファイル
func (h *AlbumHandler) uploadPhoto(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	albumID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	previewFH, err := c.FormFile("preview")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "preview file required"})
	}
	originalFH, err := c.FormFile("original")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "original file required"})
	}

	preview, err := previewFH.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid preview file"})
	}
	defer preview.Close()

	original, err := originalFH.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid original file"})
	}
	defer original.Close()

	out, err := h.uc.UploadPhoto(c.Request().Context(), userID, usecase.UploadPhotoInput{
		AlbumID:      albumID,
		Filename:     originalFH.Filename,
		Preview:      preview,
		PreviewSize:  previewFH.Size,
		Original:     original,
		OriginalSize: originalFH.Size,
		ContentType:  originalFH.Header.Get("Content-Type"),
		BibNumber:    c.FormValue("bib_number"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
