package domain

// Link is one card on the profile: a platform the owner can be found on.
type Link struct {
	Platform    string `yaml:"platform"`
	Label       string `yaml:"label"`
	URL         string `yaml:"url"`
	Description string `yaml:"description"`
	Color       string `yaml:"color"`
}

// DisplayName returns the label, falling back to the platform key.
func (l Link) DisplayName() string {
	if l.Label != "" {
		return l.Label
	}
	return l.Platform
}

// Profile is the owner of the card and their links, in display order.
type Profile struct {
	Name    string `yaml:"name"`
	Tagline string `yaml:"tagline"`
	Links   []Link `yaml:"links"`
}
