package source

import (
	"errors"
	"fmt"
	"image"
	"strings"
	"sync"

	"github.com/moolex/wallhaven-go/api"
	"github.com/moolex/wallhaven-go/utils"
	"go.uber.org/zap"
)

// Query narrows the wallpapers Wallhaven returns.
type Query struct {
	Keywords string
	Category string
	Purity   string
	Ratio    string
	Toplist  string
	Random   bool
}

func NewWallhaven(key string, q Query, logger *zap.Logger) *Wallhaven {
	wh := api.New(key)
	wh.SetLogger(logger)

	cond := api.NewQuery(q.Keywords)
	if q.Category != "" {
		cond.SetCategory(strings.Split(q.Category, ",")...)
	}
	if q.Purity != "" {
		cond.SetPurity(strings.Split(q.Purity, ",")...)
	}
	if q.Ratio != "" {
		cond.SetRatio(q.Ratio)
	}
	if q.Random {
		cond.Random()
	} else if q.Toplist != "" {
		cond.SortBy(api.SortTopList)
		cond.TopRange = q.Toplist
	}

	return &Wallhaven{api: wh, q: cond, log: logger.With(zap.String("via", "wallhaven"))}
}

// Wallhaven picks wallpapers page by page.
type Wallhaven struct {
	l   sync.Mutex
	api *api.API
	q   *api.QueryCond
	r   *api.QueryResult
	log *zap.Logger
}

// Pick returns the next wallpaper as a decoded image along with its URL.
func (w *Wallhaven) Pick() (image.Image, string, error) {
	w.l.Lock()
	defer w.l.Unlock()

	if w.r == nil {
		ret, err := w.api.Query(w.q)
		if err != nil {
			return nil, "", fmt.Errorf("query wallpapers failed: %w", err)
		}
		w.r = ret
	}

	wp, err := w.r.Pick(api.PickLoop, api.PickRand)
	if err != nil {
		if errors.Is(err, api.ErrNoMoreItems) {
			w.q.Page = 1
			w.r = nil
		}
		return nil, "", fmt.Errorf("get wallpaper failed: %w", err)
	}

	img, err := utils.GetThumbImage(wp, api.ThumbOriginal)
	if err != nil {
		return nil, "", fmt.Errorf("get thumb image failed: %w", err)
	}

	w.log.With(zap.String("id", wp.Id), zap.String("url", wp.Url)).Debug("picked")
	return img, wp.Url, nil
}
