package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"movierank/internal/models"
)

// HeaderUserID attributes a request to a user where an endpoint needs to
// know whose view it is serving.
const HeaderUserID = "X-User-Id"

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// avatarHosts is the allow-list of image hosting domains an avatar URL may
// point at.
var avatarHosts = []string{
	"i.imgur.com",
	"imgur.com",
	"gravatar.com",
	"www.gravatar.com",
	"avatars.githubusercontent.com",
	"image.tmdb.org",
}

// RegisterValidators wires the custom binding tags into gin's validator
// engine. Call once before building the router.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("usernamefmt", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	v.RegisterValidation("avatarhost", func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			return false
		}
		host := strings.ToLower(u.Hostname())
		for _, allowed := range avatarHosts {
			if host == allowed {
				return true
			}
		}
		return false
	})
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "url":
		return "must be a valid URL"
	case "usernamefmt":
		return "may only contain letters, digits and underscores"
	case "avatarhost":
		return "must point at an approved image host"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func validationDetails(errs validator.ValidationErrors) []models.FieldError {
	details := make([]models.FieldError, 0, len(errs))
	for _, fe := range errs {
		details = append(details, models.FieldError{
			Path:    fe.Field(),
			Message: fieldMessage(fe),
		})
	}
	return details
}

// bindJSON binds and validates the request body, writing the 400 response
// itself on failure.
func bindJSON(c *gin.Context, dest any) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "validation failed",
				"details": validationDetails(verrs),
			})
			return false
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid request body",
			"details": []models.FieldError{{Path: "body", Message: err.Error()}},
		})
		return false
	}
	return true
}

// respondError maps domain errors onto the HTTP taxonomy in one place so
// no handler invents its own status codes.
func respondError(c *gin.Context, log *logrus.Logger, production bool, err error) {
	var conflict *models.ConflictError
	var reference *models.ReferenceError

	switch {
	case errors.As(err, &conflict):
		body := gin.H{"error": conflict.Message}
		if conflict.Existing != nil {
			key := "existing" + strings.ToUpper(conflict.Resource[:1]) + conflict.Resource[1:]
			body[key] = conflict.Existing
		}
		c.JSON(http.StatusConflict, body)
	case errors.As(err, &reference):
		c.JSON(http.StatusBadRequest, gin.H{"error": reference.Message})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		log.WithError(err).Error("Unhandled error")
		body := gin.H{"error": "internal server error"}
		if !production {
			body["message"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
	}
}

func parsePage(c *gin.Context) models.Page {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultPageLimit)))
	if err != nil || limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	return models.Page{Page: page, Limit: limit}
}

func queryInt(c *gin.Context, name string) (*int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": []models.FieldError{{Path: name, Message: "must be an integer"}},
		})
		return nil, false
	}
	return &n, true
}

func queryString(c *gin.Context, name string) *string {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	return &raw
}

// paramYear parses a :year path param, enforcing the 2000 floor shared by
// watched and ranking years.
func paramYear(c *gin.Context) (int, bool) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil || year < 2000 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation failed",
			"details": []models.FieldError{{Path: "year", Message: "must be an integer year >= 2000"}},
		})
		return 0, false
	}
	return year, true
}
