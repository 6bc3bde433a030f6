package controller

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/circleapp/theater/internal/content"
	"github.com/circleapp/theater/internal/geolocation"
	"github.com/circleapp/theater/internal/repository/checkin"
	checkinService "github.com/circleapp/theater/internal/service/checkin"
	"github.com/circleapp/theater/internal/service/theater"
	"github.com/circleapp/theater/internal/timezone"
	codec "github.com/circleapp/theater/pkg/theater"
	"github.com/circleapp/theater/pkg/youtube"
)

func (c controller) listContent(w http.ResponseWriter, r *http.Request) {
	items := c.library.List()
	if t := r.URL.Query().Get("type"); t != "" {
		ct, err := codec.ParseContentType(t)
		if err != nil {
			c.writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		items = c.library.ListByType(ct)
	}

	c.writeJSON(w, http.StatusOK, envelope{"data": items})
}

func (c controller) getContent(w http.ResponseWriter, r *http.Request) {
	item, err := c.library.Resolve(r.Context(), chi.URLParam(r, "content-id"))
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to resolve content", "error", err)
		if errors.Is(err, content.ErrNotFound) {
			c.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		c.writeError(w, http.StatusInternalServerError, "failed to resolve content")
		return
	}

	c.writeJSON(w, http.StatusOK, envelope{"data": item})
}

func (c controller) listTimezones(w http.ResponseWriter, _ *http.Request) {
	c.writeJSON(w, http.StatusOK, envelope{"data": timezone.Options()})
}

type videoDataResponse struct {
	VideoID      string `json:"video_id"`
	WatchURL     string `json:"watch_url"`
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}

func (c controller) getVideoData(w http.ResponseWriter, r *http.Request) {
	videoURL, err := c.getQueryParam(r, "url")
	if err != nil {
		c.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	videoID, ok := youtube.ExtractID(videoURL)
	if !ok {
		c.writeError(w, http.StatusBadRequest, youtube.ErrInvalidURL.Error())
		return
	}

	data, err := c.videoData.Get(r.Context(), videoID)
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to get video data", "error", err)
		switch {
		case errors.Is(err, youtube.ErrInvalidURL):
			c.writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, youtube.ErrVideoNotFound):
			c.writeError(w, http.StatusNotFound, err.Error())
		default:
			c.writeError(w, http.StatusBadGateway, "failed to get video data")
		}
		return
	}

	thumbnail := data.ThumbnailURL
	if thumbnail == "" {
		thumbnail = youtube.ThumbnailURL(videoID)
	}

	c.writeJSON(w, http.StatusOK, envelope{"data": videoDataResponse{
		VideoID:      videoID,
		WatchURL:     youtube.WatchURL(videoID),
		Title:        data.Title,
		AuthorName:   data.AuthorName,
		ThumbnailURL: thumbnail,
	}})
}

type createSessionRequest struct {
	HostName    string `json:"host_name" validate:"required,max=32"`
	ContentID   string `json:"content_id" validate:"required"`
	ScheduledAt string `json:"scheduled_at" validate:"required_with=Timezone"`
	Timezone    string `json:"timezone" validate:"required_with=ScheduledAt"`
}

func (c controller) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !c.readValidJSON(w, r, &req) {
		return
	}

	resp, err := c.theaterService.CreateSession(r.Context(), &theater.CreateSessionParams{
		HostName:    req.HostName,
		ContentID:   req.ContentID,
		ScheduledAt: req.ScheduledAt,
		Timezone:    req.Timezone,
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to create session", "error", err)
		switch {
		case errors.Is(err, theater.ErrContentNotFound):
			c.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, theater.ErrInvalidSchedule):
			c.writeError(w, http.StatusBadRequest, err.Error())
		default:
			c.writeError(w, http.StatusInternalServerError, "failed to create session")
		}
		return
	}

	sess, err := c.theaterService.GetSession(r.Context(), &theater.GetSessionParams{SessionID: resp.SessionID})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to get created session", "error", err)
		c.writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}

	c.writeJSON(w, http.StatusCreated, envelope{"data": sess})
}

func (c controller) getSession(w http.ResponseWriter, r *http.Request) {
	sess, err := c.theaterService.GetSession(r.Context(), &theater.GetSessionParams{
		SessionID: chi.URLParam(r, "session-id"),
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to get session", "error", err)
		if errors.Is(err, theater.ErrSessionNotFound) {
			c.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		c.writeError(w, http.StatusInternalServerError, "failed to get session")
		return
	}

	c.writeJSON(w, http.StatusOK, envelope{"data": sess})
}

type createCheckInRequest struct {
	MemberID  string              `json:"member_id" validate:"required,max=64"`
	Label     string              `json:"label" validate:"max=64"`
	Coords    *geolocation.Coords `json:"coords"`
	ErrorCode *int                `json:"error_code" validate:"omitempty,gte=0,lte=3"`
}

func (c controller) createCheckIn(w http.ResponseWriter, r *http.Request) {
	var req createCheckInRequest
	if !c.readValidJSON(w, r, &req) {
		return
	}

	resp, err := c.checkInService.CheckIn(r.Context(), &checkinService.CheckInParams{
		MemberID:          req.MemberID,
		Label:             req.Label,
		Reported:          req.Coords,
		ReportedErrorCode: req.ErrorCode,
		RemoteIP:          c.remoteIP(r),
	})
	if err != nil {
		var geoErr *geolocation.Error
		switch {
		case errors.As(err, &geoErr):
			c.writeJSON(w, http.StatusUnprocessableEntity, envelope{"error": geoErr})
		case errors.Is(err, checkinService.ErrInvalidParams):
			c.writeError(w, http.StatusBadRequest, err.Error())
		default:
			c.logger.InfoContext(r.Context(), "failed to check in", "error", err)
			c.writeError(w, http.StatusInternalServerError, "failed to check in")
		}
		return
	}

	c.writeJSON(w, http.StatusCreated, envelope{"data": resp.CheckIn})
}

func (c controller) listCheckIns(w http.ResponseWriter, r *http.Request) {
	memberID, err := c.getQueryParam(r, "member_id")
	if err != nil {
		c.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := c.getIntQueryParam(r, "limit", 0)
	if err != nil {
		c.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := c.checkInService.ListCheckIns(r.Context(), &checkinService.ListCheckInsParams{
		MemberID: memberID,
		Limit:    limit,
	})
	if err != nil {
		c.logger.InfoContext(r.Context(), "failed to list check-ins", "error", err)
		c.writeError(w, http.StatusInternalServerError, "failed to list check-ins")
		return
	}

	checkIns := resp.CheckIns
	if checkIns == nil {
		checkIns = []checkin.CheckIn{}
	}

	c.writeJSON(w, http.StatusOK, envelope{"data": checkIns})
}
