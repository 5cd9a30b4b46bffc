// Package profile provides the link catalog shown on the card: a built-in
// default, YAML profile files and a watcher that reloads them on change.
package profile

import "github.com/hammamikhairi/voiceguide/internal/domain"

// Default returns the built-in profile.
func Default() domain.Profile {
	return domain.Profile{
		Tagline: "Connecting ideas and people through technology.",
		Links: []domain.Link{
			{Platform: "youtube", Label: "YouTube", URL: "https://www.youtube.com/", Color: "#ff0000",
				Description: "YouTube channel featuring technology tutorials and content."},
			{Platform: "github", Label: "GitHub", URL: "https://github.com/", Color: "#6e5494",
				Description: "GitHub profile with code repositories and development projects."},
			{Platform: "linkedin", Label: "LinkedIn", URL: "https://www.linkedin.com/", Color: "#0077b5",
				Description: "LinkedIn professional networking profile."},
			{Platform: "peerlist", Label: "Peerlist", URL: "https://peerlist.io/", Color: "#00b894",
				Description: "Peerlist professional community and opportunities platform."},
			{Platform: "orcid", Label: "ORCID", URL: "https://orcid.org/", Color: "#a6ce39",
				Description: "ORCID research profile and academic identifier."},
			{Platform: "bluesky", Label: "Bluesky", URL: "https://bsky.app/", Color: "#0085ff",
				Description: "Bluesky decentralized social networking platform."},
			{Platform: "mastodon", Label: "Mastodon", URL: "https://mastodon.social/", Color: "#6364ff",
				Description: "Mastodon federated social network instance."},
			// Black brand colours are unreadable on dark terminals.
			{Platform: "twitter", Label: "X", URL: "https://x.com/", Color: "#e7e9ea",
				Description: "X, formerly Twitter, microblogging platform."},
			{Platform: "threads", Label: "Threads", URL: "https://www.threads.net/", Color: "#e7e9ea",
				Description: "Threads text-based social network by Meta."},
			{Platform: "instagram", Label: "Instagram", URL: "https://www.instagram.com/", Color: "#e4405f",
				Description: "Instagram visual content platform."},
			{Platform: "facebook", Label: "Facebook", URL: "https://www.facebook.com/", Color: "#1877f2",
				Description: "Facebook social networking profile."},
			{Platform: "blog", Label: "Blog", URL: "", Color: "#f59e0b",
				Description: "Personal blog for articles and thoughts."},
		},
	}
}
