package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

func courseIDParam(c *gin.Context) (int, error) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course id")
	}
	return id, nil
}

func bindError(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload")
}
