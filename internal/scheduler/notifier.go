package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/PartyShepherd/alchemelody/internal/planetary"
)

// Announcement describes the start of a new planetary hour.
type Announcement struct {
	At        time.Time
	Location  planetary.Location
	Slot      planetary.Slot
	Previous  planetary.Planet // empty on the first announcement
	Synthetic bool
}

// Notifier delivers announcements.
type Notifier interface {
	Announce(ctx context.Context, a Announcement) error
}

// LogNotifier writes announcements to a zap logger.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Announce(_ context.Context, a Announcement) error {
	n.log.Info("planetary hour of "+string(a.Slot.Planet),
		zap.String("planet", string(a.Slot.Planet)),
		zap.String("previous", string(a.Previous)),
		zap.Int("hour", a.Slot.Index),
		zap.Bool("daytime", a.Slot.Daytime),
		zap.Time("start", a.Slot.Start),
		zap.Time("end", a.Slot.End),
		zap.String("location", a.Location.Key()),
		zap.Bool("synthetic", a.Synthetic))
	return nil
}
