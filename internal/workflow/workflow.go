// Package workflow implements the transactions on published listings:
// seller price updates, buyer buy-now and offers with a confirmation
// step, and marking a listing sold.
package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ignmarket/listing-bot/internal/broadcast"
	"github.com/ignmarket/listing-bot/internal/listing"
	"github.com/ignmarket/listing-bot/internal/localdb"
	"github.com/ignmarket/listing-bot/internal/notify"
	"github.com/ignmarket/listing-bot/internal/settings"
	"github.com/ignmarket/listing-bot/internal/shared/logger"
	"go.uber.org/zap"
)

var (
	// ErrNotSeller gates the seller-only operations.
	ErrNotSeller = errors.New("only the seller can do this")
	// ErrSelfPurchase rejects buy-now and offers on the actor's own listing.
	ErrSelfPurchase = errors.New("cannot buy or bid on your own listing")
	// ErrNoBuyNowPrice rejects buy-now on listings without a set price.
	ErrNoBuyNowPrice = errors.New("listing has no buy-now price")
	// ErrNothingToUpdate rejects a price update with no fields filled in.
	ErrNothingToUpdate = errors.New("no price fields provided")
)

// Actor is the user driving one operation, as identified by the
// platform layer.
type Actor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Outcome is the result of a mutating operation: the listing state
// after the operation and the re-rendered artifact for the platform
// layer to replace the posted message with.
type Outcome struct {
	Listing  *listing.Listing `json:"listing"`
	Artifact listing.Artifact `json:"artifact"`
}

// Workflow runs listing transactions against the store and pushes
// notifications and broadcast events as side effects.
type Workflow struct {
	store         *localdb.Store
	settings      *settings.Manager
	notifier      *notify.Notifier
	confirmations *confirmations

	now func() time.Time
}

func New(store *localdb.Store, settings *settings.Manager, notifier *notify.Notifier, confirmTTL time.Duration) *Workflow {
	return &Workflow{
		store:         store,
		settings:      settings,
		notifier:      notifier,
		confirmations: newConfirmations(confirmTTL),
		now:           time.Now,
	}
}

func (w *Workflow) render(l *listing.Listing, sold bool) listing.Artifact {
	cs, err := w.settings.Get(l.CommunityID)
	if err != nil {
		cs = settings.DefaultSettings()
	}
	eff := settings.Resolve(&cs, &l.Colors)
	return listing.RenderListing(l, eff, w.now(), sold)
}

// UpdatePrice lets the seller change the price fields. Empty fields
// keep their stored value.
func (w *Workflow) UpdatePrice(publicationID string, actor Actor, buyNow, currentOffer string) (*Outcome, error) {
	if buyNow == "" && currentOffer == "" {
		return nil, ErrNothingToUpdate
	}

	l, err := w.store.Mutate(publicationID, func(l *listing.Listing) error {
		if l.SellerID != actor.ID {
			return ErrNotSeller
		}
		if buyNow != "" {
			l.BuyNowPrice = buyNow
		}
		if currentOffer != "" {
			l.CurrentOffer = currentOffer
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	broadcast.Send("listing_updated", l)
	logger.Info("Listing prices updated",
		zap.String("publication_id", publicationID),
		zap.String("seller_id", actor.ID))
	return &Outcome{Listing: l, Artifact: w.render(l, false)}, nil
}

// BeginBuyNow validates a buy-now attempt and opens a confirmation.
func (w *Workflow) BeginBuyNow(publicationID string, actor Actor) (*Confirmation, error) {
	l, err := w.store.Get(publicationID)
	if err != nil {
		return nil, err
	}
	if l.SellerID == actor.ID {
		return nil, ErrSelfPurchase
	}
	if l.BuyNowPrice == "" {
		return nil, ErrNoBuyNowPrice
	}

	conf := &Confirmation{
		Kind:          confirmBuyNow,
		PublicationID: publicationID,
		ActorID:       actor.ID,
		ActorName:     actor.Name,
	}
	if _, err := w.confirmations.add(conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// Confirm resolves a pending confirmation, dispatching on what it was
// opened for. The listing is re-fetched at confirm time; it may have
// changed or vanished since the confirmation was opened.
func (w *Workflow) Confirm(confirmationID string, actor Actor) (*Outcome, error) {
	conf, err := w.confirmations.claim(confirmationID, actor.ID)
	if err != nil {
		return nil, err
	}
	switch conf.Kind {
	case confirmOffer:
		return w.resolveOffer(conf, actor)
	default:
		return w.resolveBuyNow(conf, actor)
	}
}

// resolveBuyNow finishes a buy-now. The purchase itself happens
// off-platform, so the listing is not mutated; the seller is told who
// wants to buy.
func (w *Workflow) resolveBuyNow(conf *Confirmation, actor Actor) (*Outcome, error) {
	l, err := w.store.Get(conf.PublicationID)
	if err != nil {
		return nil, err
	}

	w.notifier.Enqueue(notify.Notification{
		RecipientID: l.SellerID,
		Title:       "Buy Now Request!",
		Body:        fmt.Sprintf("%s wants to buy your %s listing at the buy-now price.", actor.Name, l.Identity),
		Fields: []notify.Field{
			{Name: "Price", Value: l.BuyNowPrice},
			{Name: "Buyer", Value: actor.Name},
		},
	})

	logger.Info("Buy-now confirmed",
		zap.String("publication_id", l.PublicationID),
		zap.String("buyer_id", actor.ID))
	return &Outcome{Listing: l, Artifact: w.render(l, false)}, nil
}

// BeginOffer opens an offer confirmation. The amount is free text and
// preserved verbatim; it is only relayed to the seller, never parsed
// into the listing.
func (w *Workflow) BeginOffer(publicationID string, actor Actor, offerText string) (*Confirmation, error) {
	l, err := w.store.Get(publicationID)
	if err != nil {
		return nil, err
	}
	if l.SellerID == actor.ID {
		return nil, ErrSelfPurchase
	}
	if strings.TrimSpace(offerText) == "" {
		return nil, &listing.ValidationError{Field: "offer", Reason: "must not be empty"}
	}

	conf := &Confirmation{
		Kind:          confirmOffer,
		PublicationID: publicationID,
		ActorID:       actor.ID,
		ActorName:     actor.Name,
		OfferText:     offerText,
	}
	if _, err := w.confirmations.add(conf); err != nil {
		return nil, err
	}
	return conf, nil
}

// resolveOffer finishes an offer. The listing is not mutated; the
// seller hears about the offer and negotiates off-platform. Only a
// seller price update moves the displayed current offer.
func (w *Workflow) resolveOffer(conf *Confirmation, actor Actor) (*Outcome, error) {
	l, err := w.store.Get(conf.PublicationID)
	if err != nil {
		return nil, err
	}

	buyNow := l.BuyNowPrice
	if buyNow == "" {
		buyNow = "Not Set"
	}
	w.notifier.Enqueue(notify.Notification{
		RecipientID: l.SellerID,
		Title:       "New Offer Received!",
		Body:        fmt.Sprintf("%s has made an offer on your %s listing.", actor.Name, l.Identity),
		Fields: []notify.Field{
			{Name: "Offer Amount", Value: conf.OfferText},
			{Name: "Buy It Now Price", Value: buyNow},
			{Name: "Buyer", Value: actor.Name},
		},
	})

	logger.Info("Offer relayed to seller",
		zap.String("publication_id", l.PublicationID),
		zap.String("buyer_id", actor.ID),
		zap.String("offer", conf.OfferText))
	return &Outcome{Listing: l, Artifact: w.render(l, false)}, nil
}

// CancelConfirmation discards a pending confirmation.
func (w *Workflow) CancelConfirmation(confirmationID string, actor Actor) error {
	_, err := w.confirmations.claim(confirmationID, actor.ID)
	return err
}

// MarkSold closes a listing: the store entry is removed and the caller
// gets the final sold artifact to replace the posted message with. The
// posted message itself stays up as a sale record. The ownership check
// and the removal run under the listing's key lock, so of two racing
// mark-solds the loser sees a plain not-found.
func (w *Workflow) MarkSold(publicationID string, actor Actor) (*Outcome, error) {
	l, err := w.store.Take(publicationID, func(l *listing.Listing) error {
		if l.SellerID != actor.ID {
			return ErrNotSeller
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	art := w.render(l, true)
	w.notifier.Enqueue(notify.Notification{
		RecipientID: l.SellerID,
		Title:       "Your Account Sold!",
		Body:        fmt.Sprintf("Your %s listing has been marked as sold.", l.Identity),
	})

	broadcast.Send("listing_sold", l)
	logger.Info("Listing marked sold",
		zap.String("publication_id", publicationID),
		zap.String("seller_id", actor.ID))
	return &Outcome{Listing: l, Artifact: art}, nil
}

// MessageProber checks whether a posted listing message still exists on
// the platform.
type MessageProber interface {
	MessageExists(channelID, messageID string) (bool, error)
}

// CleanInactive removes store entries whose posted message is gone.
// A probe error is treated as gone: a stale entry costs nothing to
// re-create, a dangling one blocks the identity forever.
func (w *Workflow) CleanInactive(prober MessageProber) (int, error) {
	all, err := w.store.All()
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, l := range all {
		exists, err := prober.MessageExists(l.ChannelID, l.PublicationID)
		if err != nil {
			logger.Warn("Message probe failed, treating listing as inactive",
				zap.String("publication_id", l.PublicationID), zap.Error(err))
		}
		if err == nil && exists {
			continue
		}
		if err := w.store.Delete(l.PublicationID); err != nil && !errors.Is(err, localdb.ErrNotFound) {
			return removed, err
		}
		removed++
	}

	if removed > 0 {
		logger.Info("Inactive listings cleaned", zap.Int("removed", removed))
	}
	return removed, nil
}

// PendingConfirmations reports the number of open confirmations.
func (w *Workflow) PendingConfirmations() int {
	return w.confirmations.count()
}
