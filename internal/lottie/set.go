package lottie

import (
	"context"
)

// Asset names used for logging and metrics
const (
	AssetGunfire      = "gunfire"
	AssetSatisfaction = "customer_satisfaction"
	AssetChatbot      = "chatbot"
	AssetFireworks    = "fireworks"
)

// Sources holds the URL of every decorative animation
type Sources struct {
	Gunfire      string
	Satisfaction string
	Chatbot      string
	Fireworks    string
}

// Set is the decorative animations loaded once at startup
type Set struct {
	Gunfire      Maybe
	Satisfaction Maybe
	Chatbot      Maybe
	Fireworks    Maybe
}

// LoadSet fetches every animation in turn. It never fails; missing
// animations are left absent.
func (c *Client) LoadSet(ctx context.Context, src Sources) Set {
	return Set{
		Gunfire:      c.Load(ctx, AssetGunfire, src.Gunfire),
		Chatbot:      c.Load(ctx, AssetChatbot, src.Chatbot),
		Fireworks:    c.Load(ctx, AssetFireworks, src.Fireworks),
		Satisfaction: c.Load(ctx, AssetSatisfaction, src.Satisfaction),
	}
}
