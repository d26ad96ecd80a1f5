package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
    "go.uber.org/zap"

    "github.com/iliyamo/maternal-health/internal/model"
    "github.com/iliyamo/maternal-health/internal/repository"
    "github.com/iliyamo/maternal-health/internal/service"
)

// DefaultSubmitTimeout bounds the whole submit flow, prediction included.
const DefaultSubmitTimeout = 45 * time.Second

// MaternalHandler serves the pre-delivery questionnaire.
type MaternalHandler struct {
    Records     *repository.MaternalRepo
    Submissions *service.SubmissionService
    Cache       cachePurger
    Log         *zap.Logger
    Timeout     time.Duration
}

func NewMaternalHandler(records *repository.MaternalRepo, subs *service.SubmissionService, cache cachePurger, log *zap.Logger) *MaternalHandler {
    return &MaternalHandler{Records: records, Submissions: subs, Cache: cache, Log: log, Timeout: DefaultSubmitTimeout}
}

// maternalFromForm maps snake_case or camelCase fields onto a record.
func maternalFromForm(f formBody) *model.MaternalRecord {
    return &model.MaternalRecord{
        Name:                    str(f.pick("name")),
        Age:                     intOrNull(f.pick("age")),
        PastPregnancyCount:      intOrNull(f.pick("past_pregnancy_count", "pastPregnancyCount")),
        BloodGroupMother:        str(f.pick("blood_group_mother", "bloodGroupMother")),
        BloodGroupFather:        str(f.pick("blood_group_father", "bloodGroupFather")),
        MedicalBgMother:         str(f.pick("medical_bg_mother", "medicalBgMother")),
        MedicalBgFather:         str(f.pick("medical_bg_father", "medicalBgFather")),
        YearsSinceLastPregnancy: intOrNull(f.pick("years_since_last_pregnancy", "yearsSinceLastPregnancy")),
        DeliveryType:            str(f.pick("delivery_type", "deliveryType")),
        Haemoglobin:             floatOrNull(f.pick("haemoglobin")),
        ExternalID:              str(f.pick("external_id", "externalId")),
    }
}

// Submit stores a questionnaire, scores it and answers with both.
// POST /maternal-health
func (h *MaternalHandler) Submit(c echo.Context) error {
    body, err := readForm(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
    }
    rec := maternalFromForm(body)
    if rec.Name == nil && rec.ExternalID == nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "At least 'name' or 'external_id' is required"})
    }
    if rec.YearsSinceLastPregnancy != nil && *rec.YearsSinceLastPregnancy < 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "years_since_last_pregnancy must be zero or more"})
    }
    rec.SubmittedBy = submitter(c)

    timeout := h.Timeout
    if timeout <= 0 {
        timeout = DefaultSubmitTimeout
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
    defer cancel()

    sub, err := h.Submissions.Submit(ctx, rec)
    if err != nil {
        h.Log.Error("maternal submit failed", zap.Error(err))
        return serverError(c, http.StatusInternalServerError, err)
    }
    if h.Cache != nil {
        if err := h.Cache.Purge(ctx); err != nil {
            h.Log.Warn("dashboard cache purge failed", zap.Error(err))
        }
    }

    return c.JSON(http.StatusCreated, echo.Map{
        "ok":              true,
        "id":              sub.Record.ID,
        "created_at":      sub.Record.CreatedAt,
        "record":          sub.Record,
        "prediction":      sub.Prediction,
        "prediction_file": sub.PredictionFile,
    })
}

// Get returns one questionnaire.
// GET /maternal-health/:id
func (h *MaternalHandler) Get(c echo.Context) error {
    id, ok := parseID(c)
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid id"})
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rec, err := h.Records.GetByID(ctx, id)
    if errors.Is(err, repository.ErrNotFound) {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "Not found"})
    }
    if err != nil {
        h.Log.Error("maternal get failed", zap.Uint64("id", id), zap.Error(err))
        return serverError(c, http.StatusInternalServerError, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "record": rec})
}
