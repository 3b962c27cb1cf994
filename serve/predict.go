package serve

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type predictRequest struct {
	Features interface{} `json:"features"`
}

func (s *Server) predict(c *gin.Context) {
	var req predictRequest
	if e := c.ShouldBindJSON(&req); e != nil || req.Features == nil {
		predictions.WithLabelValues("rejected").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'features' in JSON request."})
		return
	}
	var (
		v float64
		e error
	)
	switch f := req.Features.(type) {
	case []interface{}:
		if len(f) != len(s.model.Features) {
			predictions.WithLabelValues("rejected").Inc()
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("Expected %d features, got %d.", len(s.model.Features), len(f)),
			})
			return
		}
		v, e = s.model.PredictList(f)
	case map[string]interface{}:
		v, e = s.model.PredictMap(f)
	default:
		e = fmt.Errorf("features must be a list or an object, got %T", f)
	}
	if e != nil {
		predictions.WithLabelValues("failed").Inc()
		log.Warnf("prediction failed: %v", e)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fmt.Sprintf("Prediction failed: %v", e)})
		return
	}
	predictions.WithLabelValues("ok").Inc()
	c.JSON(http.StatusOK, gin.H{"input": req.Features, "prediction": v})
}
