package handlers

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/emilythestrangee/institute-hub/backend/internal/apperr"
	"github.com/emilythestrangee/institute-hub/backend/internal/middleware"
)

const notBlankTag = "notblank"

var (
	translator    ut.Translator
	validatorOnce sync.Once
)

// setupValidator teaches gin's validator English messages and JSON field names.
func setupValidator() {
	validatorOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		_en := en.New()
		uni := ut.New(_en, _en)
		translator, _ = uni.GetTranslator("en")
		_ = en_translations.RegisterDefaultTranslations(v, translator)

		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		_ = v.RegisterValidation(notBlankTag, func(fl validator.FieldLevel) bool {
			if s, ok := fl.Field().Interface().(string); ok {
				return strings.TrimSpace(s) != ""
			}
			return true
		})
		_ = v.RegisterTranslation(notBlankTag, translator,
			func(ut.Translator) error { return nil },
			func(_ ut.Translator, fe validator.FieldError) string {
				return fe.Field() + " cannot be blank"
			},
		)
	})
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.InvalidArgument:
		return http.StatusBadRequest
	case apperr.PermissionDenied:
		return http.StatusForbidden
	case apperr.InvalidState, apperr.Conflict:
		return http.StatusConflict
	case apperr.Unauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error": message}. Internal causes are logged
// by the request logger via c.Error and never sent to the client.
func respondError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			if translator != nil {
				fields[fe.Field()] = fe.Translate(translator)
			} else {
				fields[fe.Field()] = fe.Error()
			}
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fields})
		return
	}

	kind := apperr.KindOf(err)
	if kind == apperr.Internal {
		_ = c.Error(err)
	}
	c.JSON(statusFor(kind), gin.H{"error": apperr.MessageOf(err)})
}

// bindJSON decodes and validates the body into req, answering 400 on failure.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			respondError(c, err)
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed JSON body"})
		return false
	}
	return true
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// requireUser returns the authenticated caller or answers 401.
func requireUser(c *gin.Context) (int, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return 0, false
	}
	return id, true
}

// viewer returns the caller for optional-auth reads, or nil.
func viewer(c *gin.Context) *int {
	if id, ok := middleware.UserID(c); ok {
		return &id
	}
	return nil
}

type page struct {
	Page    int
	PerPage int
}

func (p page) offset() int { return (p.Page - 1) * p.PerPage }

// pagination reads page and per_page, defaulting to 1 and 15 and capping
// per_page at 100.
func pagination(c *gin.Context) page {
	p := page{Page: 1, PerPage: 15}
	if v, err := strconv.Atoi(c.Query("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(c.Query("per_page")); err == nil && v > 0 {
		p.PerPage = v
	}
	if p.PerPage > 100 {
		p.PerPage = 100
	}
	return p
}

func paginated(data any, p page, total int64) gin.H {
	lastPage := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if lastPage == 0 {
		lastPage = 1
	}
	return gin.H{
		"data": data,
		"meta": gin.H{
			"current_page": p.Page,
			"per_page":     p.PerPage,
			"total":        total,
			"last_page":    lastPage,
		},
	}
}
