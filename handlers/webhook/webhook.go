package webhook

import (
	"errors"
	"log"
	"net/http"

	"github.com/abelzimusi/order-verification-app/models"

	"github.com/gin-gonic/gin"
)

func RegisterWebhookRoutes(r *gin.RouterGroup, p *Processor) {
	r.POST("/webhook", p.ReceiveMessage)
}

// ReceiveMessage is the single inbound endpoint the gateway posts every
// message event to. All recognized outcomes, duplicates and ignores
// included, answer 200 with a short status string.
func (p *Processor) ReceiveMessage(c *gin.Context) {
	var payload models.UltraMsgWebhook
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Malformed JSON received."})
		return
	}

	msg, err := p.normalize(payload)
	if err != nil {
		if errors.Is(err, ErrMalformedEnvelope) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while processing the request."})
		return
	}

	status, err := p.Process(c.Request.Context(), msg)
	if err != nil {
		log.Printf("Failed to process message %s from %s: %v", msg.ID, msg.From, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "An error occurred while processing the request."})
		return
	}
	c.String(http.StatusOK, status)
}
