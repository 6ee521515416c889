package handlers

import (
	"log"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"marketscout/internal/comparables"
	"marketscout/internal/database"
	"marketscout/internal/evaluator"
	"marketscout/internal/models"
	"marketscout/internal/util"
	"marketscout/internal/validation"
	"marketscout/internal/vehicle"
)

// ScoutHandler serves the inventory, comparables and evaluation API
type ScoutHandler struct {
	db       *database.Database
	pipeline *evaluator.Pipeline
}

func NewScoutHandler(db *database.Database, pipeline *evaluator.Pipeline) *ScoutHandler {
	return &ScoutHandler{db: db, pipeline: pipeline}
}

// EvaluateRequest is a listing submitted for scoring
type EvaluateRequest struct {
	URL         string `json:"url" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// InventorySummary returns every evaluated (year, make, model) with counts
func (h *ScoutHandler) InventorySummary(c *gin.Context) {
	summary, err := h.db.InventorySummary()
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load inventory", err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// InventoryMakes returns the evaluated makes with counts and year ranges
func (h *ScoutHandler) InventoryMakes(c *gin.Context) {
	makes, err := h.db.InventoryMakes()
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load makes", err)
		return
	}

	c.JSON(http.StatusOK, makes)
}

// YearsForMake returns the evaluated years for one make
func (h *ScoutHandler) YearsForMake(c *gin.Context) {
	makeName := c.Param("make")
	if err := validation.ValidateMake(makeName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	years, err := h.db.YearsForMake(makeName)
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load years", err)
		return
	}

	c.JSON(http.StatusOK, years)
}

// ModelsForMakeYear returns the evaluated models for one make and year
func (h *ScoutHandler) ModelsForMakeYear(c *gin.Context) {
	makeName := c.Param("make")
	if err := validation.ValidateMake(makeName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	year, err := validation.ValidateYear(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.db.ModelsForMakeYear(makeName, year)
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load models", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// EvaluationsForVehicle returns all evaluations for one vehicle
func (h *ScoutHandler) EvaluationsForVehicle(c *gin.Context) {
	year, err := validation.ValidateYear(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	makeName := c.Param("make")
	if err := validation.ValidateMake(makeName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := c.Param("model")
	if err := validation.ValidateModel(model); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	records, err := h.db.EvaluationsForVehicle(year, makeName, model)
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load evaluations", err)
		return
	}

	c.JSON(http.StatusOK, records)
}

// GetComparables returns the cached comparable prices for a vehicle
func (h *ScoutHandler) GetComparables(c *gin.Context) {
	year, err := validation.ValidateYear(c.Param("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	makeName := c.Param("make")
	if err := validation.ValidateMake(makeName); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	model := c.Param("model")
	if err := validation.ValidateModel(model); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	searchKey := comparables.SearchKey(year, makeName, model)
	set, err := h.db.GetComparables(searchKey)
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to load comparables", err)
		return
	}
	if set == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No comparables found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"year":        year,
		"make":        makeName,
		"model":       model,
		"prices":      set.Prices,
		"median":      set.Median,
		"min":         set.Min,
		"max":         set.Max,
		"count":       set.Count,
		"lastUpdated": set.LastUpdated,
	})
}

// CheckItem returns the stored evaluation for a marketplace item ID
func (h *ScoutHandler) CheckItem(c *gin.Context) {
	itemID := c.Param("itemId")
	if err := validation.ValidateItemID(itemID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	record, err := h.db.GetEvaluationByItemID(itemID)
	if err != nil {
		util.SafeErrorResponse(c, http.StatusInternalServerError, "Failed to check item", err)
		return
	}
	if record == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not evaluated"})
		return
	}

	c.JSON(http.StatusOK, record)
}

// Evaluate scores a submitted listing and persists the result
func (h *ScoutHandler) Evaluate(c *gin.Context) {
	var req EvaluateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	if err := validation.ValidateListingURL(req.URL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	title, err := validation.SanitizeTitle(req.Title)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing := models.Listing{
		URL:         req.URL,
		Title:       title,
		Price:       req.Price,
		Description: req.Description,
		Location:    req.Location,
	}

	result := h.pipeline.Evaluate(listing)
	info := vehicle.ExtractVehicleInfo(listing.Title, listing.Description)

	// Persistence failure does not void the evaluation
	saved := true
	if err := h.db.SaveEvaluation(listing, result, info); err != nil {
		log.Printf("[ERROR] failed to save evaluation for %s: %v", listing.URL, err)
		saved = false
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"saved":      saved,
		"evaluation": result,
		"vehicle":    info,
	})
}

// Health reports server status and the configured local LLM host
func (h *ScoutHandler) Health(c *gin.Context) {
	ollama := os.Getenv("OLLAMA_HOST")
	if ollama == "" {
		ollama = "http://localhost:11434"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ollama": ollama,
	})
}
