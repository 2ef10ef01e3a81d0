package common

import (
	"bytes"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stratastor/burrow/config"
	"github.com/stratastor/burrow/pkg/errors"
	"github.com/stratastor/logger"
)

// Global logger
var Log logger.Logger

func init() {
	var err error
	Log, err = logger.NewTag(config.NewLoggerConfig(nil), "global")
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
}

// InitLogger replaces the global logger with one honouring cfg.
func InitLogger(cfg *config.Config) error {
	l, err := logger.NewTag(config.NewLoggerConfig(cfg), "global")
	if err != nil {
		return err
	}
	Log = l
	return nil
}

// Helper to add errors to context
func APIError(c *gin.Context, err error) {
	// Recorded for the request logger
	_ = c.Error(err)

	var burrowErr *errors.BurrowError
	if errors.As(err, &burrowErr) {
		c.JSON(burrowErr.HTTPStatus, gin.H{
			"error": gin.H{
				"code":      burrowErr.Code,
				"domain":    burrowErr.Domain,
				"message":   burrowErr.Message,
				"details":   burrowErr.Details,
				"metadata":  burrowErr.Metadata,
				"timestamp": time.Now().Format(time.RFC3339),
			},
		})
	} else {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": gin.H{
				"message":   err.Error(),
				"timestamp": time.Now().Format(time.RFC3339),
			},
		})
	}
	c.Abort()
}

// ReadResetBody reads and resets the request body so it can be re-read by subsequent handlers
func ReadResetBody(c *gin.Context) ([]byte, error) {
	body, err := c.GetRawData()
	if err != nil {
		return nil, err
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
	return body, nil
}
