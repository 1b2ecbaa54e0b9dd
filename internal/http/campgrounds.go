package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"yelpcamp/internal/domain"
	"yelpcamp/internal/service"
	"yelpcamp/internal/session"
)

const campgroundNotFound = "Campground not found."

var errUploadTooLarge = fmt.Errorf("%w: image is too large", domain.ErrValidation)

func (h *Handler) listCampgrounds(c *gin.Context) {
	res, err := h.campgrounds.List(c.Request.Context(), c.Query("search"))
	if err != nil {
		h.log.WithError(err).Error("list campgrounds")
		h.renderError(c, http.StatusInternalServerError, somethingWentWrong)
		return
	}
	h.render(c, http.StatusOK, "index", gin.H{"Result": res})
}

func (h *Handler) newCampground(c *gin.Context) {
	h.render(c, http.StatusOK, "new", nil)
}

func (h *Handler) createCampground(c *gin.Context) {
	image, closeImage, err := h.formImage(c)
	if err != nil {
		redirectWith(c, session.FlashError, h.describe(c, err), "/campgrounds/new")
		return
	}
	defer closeImage()

	cg, err := h.campgrounds.Create(c.Request.Context(), session.Current(c), campgroundFields(c), image)
	if err != nil {
		redirectWith(c, session.FlashError, h.describe(c, err), "/campgrounds/new")
		return
	}
	redirectWith(c, session.FlashSuccess, "Successfully created campground!", campgroundPath(cg.ID))
}

func (h *Handler) showCampground(c *gin.Context) {
	id, ok := campgroundID(c)
	if !ok {
		redirectWith(c, session.FlashError, campgroundNotFound, "/campgrounds")
		return
	}
	cg, err := h.campgrounds.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			redirectWith(c, session.FlashError, campgroundNotFound, "/campgrounds")
			return
		}
		h.log.WithError(err).WithField("campground_id", id).Error("load campground")
		h.renderError(c, http.StatusInternalServerError, somethingWentWrong)
		return
	}
	h.render(c, http.StatusOK, "show", gin.H{
		"Campground": cg,
		"CanModify":  cg.CanBeModifiedBy(session.Current(c)),
	})
}

func (h *Handler) editCampground(c *gin.Context) {
	id, ok := campgroundID(c)
	if !ok {
		redirectWith(c, session.FlashError, campgroundNotFound, "/campgrounds")
		return
	}
	cg, err := h.campgrounds.ForEdit(c.Request.Context(), session.Current(c), id)
	if err != nil {
		h.failCampground(c, id, err)
		return
	}
	h.render(c, http.StatusOK, "edit", gin.H{"Campground": cg})
}

func (h *Handler) updateCampground(c *gin.Context) {
	id, ok := campgroundID(c)
	if !ok {
		redirectWith(c, session.FlashError, campgroundNotFound, "/campgrounds")
		return
	}
	image, closeImage, err := h.formImage(c)
	if err != nil {
		redirectWith(c, session.FlashError, h.describe(c, err), campgroundPath(id)+"/edit")
		return
	}
	defer closeImage()

	if _, err := h.campgrounds.Update(c.Request.Context(), session.Current(c), id, campgroundFields(c), image); err != nil {
		if errors.Is(err, domain.ErrValidation) || errors.Is(err, domain.ErrUpstream) {
			redirectWith(c, session.FlashError, h.describe(c, err), campgroundPath(id)+"/edit")
			return
		}
		h.failCampground(c, id, err)
		return
	}
	redirectWith(c, session.FlashSuccess, "Successfully Updated!", campgroundPath(id))
}

func (h *Handler) deleteCampground(c *gin.Context) {
	id, ok := campgroundID(c)
	if !ok {
		redirectWith(c, session.FlashError, campgroundNotFound, "/campgrounds")
		return
	}
	if err := h.campgrounds.Delete(c.Request.Context(), session.Current(c), id); err != nil {
		h.failCampground(c, id, err)
		return
	}
	redirectWith(c, session.FlashSuccess, "Campground deleted successfully!", "/campgrounds")
}

func (h *Handler) createComment(c *gin.Context) {
	id, ok := campgroundID(c)
	if !ok {
		redirectWith(c, session.FlashError, campgroundNotFound, "/campgrounds")
		return
	}
	if _, err := h.comments.Add(c.Request.Context(), session.Current(c), id, c.PostForm("comment[text]")); err != nil {
		h.failCampground(c, id, err)
		return
	}
	redirectWith(c, session.FlashSuccess, "Successfully added comment", campgroundPath(id))
}

// failCampground sends the user back to the detail page, or to the list when the campground is gone.
func (h *Handler) failCampground(c *gin.Context, id int64, err error) {
	if errors.Is(err, domain.ErrNotFound) {
		redirectWith(c, session.FlashError, campgroundNotFound, "/campgrounds")
		return
	}
	redirectWith(c, session.FlashError, h.describe(c, err), campgroundPath(id))
}

// formImage reads the optional "image" field. A missing file yields a nil upload.
// The returned close func is always safe to call.
func (h *Handler) formImage(c *gin.Context) (*service.Upload, func(), error) {
	noop := func() {}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)

	header, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return nil, noop, errUploadTooLarge
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return nil, noop, nil
		default:
			h.log.WithError(err).Warn("read multipart upload")
			return nil, noop, fmt.Errorf("%w: could not read the uploaded image", domain.ErrValidation)
		}
	}
	if header.Size > h.opts.MaxUploadBytes {
		return nil, noop, errUploadTooLarge
	}

	f, err := header.Open()
	if err != nil {
		return nil, noop, fmt.Errorf("open upload: %w", err)
	}
	upload := &service.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        f,
	}
	return upload, func() { _ = f.Close() }, nil
}

func campgroundFields(c *gin.Context) service.CampgroundFields {
	return service.CampgroundFields{
		Name:        c.PostForm("campground[name]"),
		Description: c.PostForm("campground[description]"),
	}
}

func campgroundID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func campgroundPath(id int64) string {
	return "/campgrounds/" + strconv.FormatInt(id, 10)
}
