package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"learnstack/utils"
)

type HealthHandler struct {
	mongo *mongo.Client
	redis *redis.Client
}

func NewHealthHandler(mongoClient *mongo.Client, redisClient *redis.Client) *HealthHandler {
	return &HealthHandler{mongo: mongoClient, redis: redisClient}
}

// Healthz pings the stores. Redis is optional, so its failure only degrades.
func (h *HealthHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := gin.H{"mongo": "ok", "redis": "disabled"}
	code := http.StatusOK
	if h.mongo != nil {
		if err := h.mongo.Ping(ctx, readpref.Primary()); err != nil {
			status["mongo"] = err.Error()
			code = http.StatusServiceUnavailable
		}
	}
	if h.redis != nil {
		status["redis"] = "ok"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			status["redis"] = "degraded: " + err.Error()
		}
	}
	status["pool"] = utils.GetMongoPoolStats()
	c.JSON(code, &utils.Response{Status: code, Data: status})
}
