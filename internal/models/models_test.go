package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSubscriberStates(t *testing.T) {
	now := time.Now()
	sub := &SubscriberModel{Email: "a@x.com"}
	require.Equal(t, StateUnsubscribed, sub.State())
	require.True(t, sub.IsUnsubscribed())

	hash, err := sub.PrepareCheckout(now)
	require.NoError(t, err)
	require.Equal(t, StatePendingSubscribe, sub.State())
	require.False(t, sub.IsUnsubscribed())
	require.Equal(t, now, *sub.CheckoutAt)

	require.NoError(t, sub.ValidateCheckout(hash))
	sub.CompleteCheckout(now)
	require.Equal(t, StateActive, sub.State())
	require.Nil(t, sub.CheckoutHash)
	require.Nil(t, sub.CheckoutAt)

	require.ErrorIs(t, sub.ValidateCheckout(hash), ErrNoPendingCheckout)

	hash, err = sub.PrepareCheckout(now)
	require.NoError(t, err)
	require.Equal(t, StatePendingUnsubscribe, sub.State())

	later := now.Add(time.Minute)
	require.NoError(t, sub.ValidateCheckout(hash))
	sub.CompleteCheckout(later)
	require.Equal(t, StateUnsubscribed, sub.State())
	require.Equal(t, later, *sub.CheckoutAt)
}

func TestValidateCheckoutMismatch(t *testing.T) {
	sub := &SubscriberModel{}
	hash, err := sub.PrepareCheckout(time.Now())
	require.NoError(t, err)

	require.ErrorIs(t, sub.ValidateCheckout(hash+"0"), ErrCheckoutMismatch)
	require.ErrorIs(t, sub.ValidateCheckout(""), ErrCheckoutMismatch)
	require.False(t, sub.IsActive)
	require.Equal(t, hash, *sub.CheckoutHash)
}

func TestTranslatedGet(t *testing.T) {
	title := Translated{"uk": "Толока", "en": " "}
	require.Equal(t, "Толока", title.Get("uk", "uk"))
	require.Equal(t, "Толока", title.Get("en", "uk"))
	require.Equal(t, "Толока", title.Get("pl", "uk"))
	require.Equal(t, []string{"uk"}, title.Locales())
	require.Equal(t, "", Translated(nil).Get("uk", "uk"))
}

func TestEventSlugAndStaticPath(t *testing.T) {
	ev := &EventModel{Base: Base{ID: "42"}, Title: Translated{"uk": "Hello World Event"}}
	ev.SetSlug("uk")
	require.Equal(t, "hello_world_event", ev.Slug)
	require.Equal(t, "events/42/hello_world_event", ev.StaticPath())

	cyr := &EventModel{Title: Translated{"uk": "Толока у парку"}}
	cyr.SetSlug("uk")
	require.NotEmpty(t, cyr.Slug)
	require.NotContains(t, cyr.Slug, "-")
	require.NotContains(t, cyr.Slug, " ")
}
