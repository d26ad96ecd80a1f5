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
)

// PostDeliveryHandler serves the follow-up forms filled after birth.
type PostDeliveryHandler struct {
    Records *repository.PostDeliveryRepo
    Log     *zap.Logger
}

func NewPostDeliveryHandler(records *repository.PostDeliveryRepo, log *zap.Logger) *PostDeliveryHandler {
    return &PostDeliveryHandler{Records: records, Log: log}
}

// postDeliveryView is the JSON shape of a record: the date as YYYY-MM-DD
// and the disease list split out for the client.
type postDeliveryView struct {
    *model.PostDeliveryRecord
    DeliveryDate       string   `json:"delivery_date"`
    ChildDiseasesArray []string `json:"child_diseases_array"`
}

func viewOf(r *model.PostDeliveryRecord) postDeliveryView {
    return postDeliveryView{PostDeliveryRecord: r, DeliveryDate: r.DeliveryDay(), ChildDiseasesArray: r.DiseaseList()}
}

// Create stores one follow-up form.
// POST /post-delivery
func (h *PostDeliveryHandler) Create(c echo.Context) error {
    body, err := readForm(c)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid JSON body"})
    }

    delivered, ok := parseTime(body.pick("delivery_date"))
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "delivery_date is required"})
    }
    weight := floatOrNull(body.pick("child_weight_kg", "child_weight"))
    if weight == nil || *weight <= 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "child_weight_kg must be positive"})
    }
    submitted, ok := parseTime(body.pick("submitted_at"))
    if !ok {
        submitted = time.Now().UTC()
    }

    rec := &model.PostDeliveryRecord{
        MotherName:    str(body.pick("mother_name")),
        DeliveryDate:  delivered,
        Complications: str(body.pick("complications")),
        ChildWeightKg: *weight,
        ChildDiseases: list(body.pick("child_diseases")),
        Notes:         str(body.pick("notes")),
        SubmittedAt:   submitted,
        ExternalID:    str(body.pick("external_id")),
        SubmittedBy:   submitter(c),
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    stored, err := h.Records.Create(ctx, rec)
    if err != nil {
        h.Log.Error("post-delivery create failed", zap.Error(err))
        return serverError(c, http.StatusInternalServerError, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{"ok": true, "record": viewOf(stored)})
}

// Get returns one follow-up form.
// GET /post-delivery/:id
func (h *PostDeliveryHandler) Get(c echo.Context) error {
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
        h.Log.Error("post-delivery get failed", zap.Uint64("id", id), zap.Error(err))
        return serverError(c, http.StatusInternalServerError, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ok": true, "record": viewOf(rec)})
}

// listQuery reads limit/offset (or page/pageSize), search, since and
// before from the query string.
func listQuery(c echo.Context) repository.PostDeliveryQuery {
    limit := intOrNull(c.QueryParam("limit"))
    offset := intOrNull(c.QueryParam("offset"))
    page := intOrNull(c.QueryParam("page"))
    pageSize := intOrNull(c.QueryParam("pageSize"))

    var q repository.PostDeliveryQuery
    switch {
    case limit != nil:
        q.Limit = int(*limit)
    case pageSize != nil:
        q.Limit = int(*pageSize)
    }
    switch {
    case offset != nil:
        q.Offset = int(*offset)
    case page != nil && pageSize != nil:
        q.Offset = pageOffset(*page, *pageSize)
    }
    if s := str(c.QueryParam("search")); s != nil {
        q.Search = *s
    }
    if t, ok := parseTime(c.QueryParam("since")); ok {
        q.Since = t
    }
    if t, ok := parseTime(c.QueryParam("before")); ok {
        q.Before = t
    }
    q.Normalize()
    return q
}

// maxPage keeps (page-1)*pageSize far from int64 overflow.
const maxPage = 1 << 31

// pageOffset is (page-1)*size with page clamped to 1..maxPage and size to
// the limits List accepts.
func pageOffset(page, size int64) int {
    if size <= 0 {
        size = repository.DefaultPostDeliveryLimit
    }
    size = min(size, repository.MaxPostDeliveryLimit)
    page = min(max(page, 1), maxPage)
    return int((page - 1) * size)
}

// List pages through follow-up forms, newest first.
// GET /post-delivery
func (h *PostDeliveryHandler) List(c echo.Context) error {
    q := listQuery(c)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    rows, total, err := h.Records.List(ctx, q)
    if err != nil {
        h.Log.Error("post-delivery list failed", zap.Error(err))
        return serverError(c, http.StatusInternalServerError, err)
    }
    data := make([]postDeliveryView, 0, len(rows))
    for _, r := range rows {
        data = append(data, viewOf(r))
    }
    return c.JSON(http.StatusOK, echo.Map{
        "ok":     true,
        "data":   data,
        "total":  total,
        "limit":  q.Limit,
        "offset": q.Offset,
    })
}
