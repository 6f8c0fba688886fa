package server

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"aicaster/hub"
	"aicaster/links"
	"aicaster/models"
)

type handlers struct {
	feed      FeedSource
	hub       Hub
	previewer Previewer
}

func (h *handlers) getFeed(c *fiber.Ctx) error {
	casts, err := h.feed.Casts(c.UserContext())
	if err != nil {
		log.WithField("error", err).Error("Error fetching casts")
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Failed to fetch casts"})
	}

	if casts == nil {
		casts = []models.EnrichedCast{}
	}
	return c.JSON(models.FeedResponse{Casts: casts})
}

func (h *handlers) getCast(c *fiber.Ctx) error {
	fidParam := c.Query("fid")
	hash := c.Query("hash")

	if fidParam == "" || hash == "" {
		return badRequest(c, "Missing required parameters")
	}

	fid, err := parseFid(fidParam)
	if err != nil {
		return badRequest(c, "FID must be a number")
	}

	log.WithFields(log.Fields{
		"fid":  fid,
		"hash": hash,
	}).Debug("Fetching cast")

	msg, err := h.hub.CastByID(c.UserContext(), fid, hash)
	var statusErr *hub.StatusError
	if errors.As(err, &statusErr) {
		log.WithFields(log.Fields{
			"fid":    fid,
			"hash":   hash,
			"status": statusErr.StatusCode,
			"body":   statusErr.Body,
		}).Warn("Cast fetch failed")
		return c.Status(statusErr.StatusCode).JSON(models.ErrorResponse{
			Error: fmt.Sprintf("Cast fetch failed: %d", statusErr.StatusCode),
		})
	}
	if err != nil {
		log.WithField("error", err).Error("Error in castById")
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Internal server error"})
	}

	c.Type("json", "utf-8")
	return c.Send(msg.Raw)
}

func (h *handlers) getUserProfile(c *fiber.Ctx) error {
	fidParam := c.Query("fid")
	if fidParam == "" {
		return badRequest(c, "Missing fid parameter")
	}

	fid, err := parseFid(fidParam)
	if err != nil {
		return badRequest(c, "FID must be a number")
	}

	return c.JSON(h.hub.UserProfile(c.UserContext(), fid))
}

func (h *handlers) getLinkPreview(c *fiber.Ctx) error {
	url := c.Query("url")
	if !links.Valid(url) {
		return badRequest(c, "Invalid URL")
	}

	return c.JSON(h.previewer.Preview(c.UserContext(), url))
}

func parseFid(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: message})
}
