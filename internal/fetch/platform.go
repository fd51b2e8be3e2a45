package fetch

import (
	"net/url"
	"strings"
)

// Platform is a job board whose page layout is known
type Platform string

const (
	PlatformGreenhouse Platform = "greenhouse"
	PlatformLever      Platform = "lever"
	PlatformWorkday    Platform = "workday"
	PlatformAshby      Platform = "ashby"
	PlatformUnknown    Platform = "unknown"
)

var platformHosts = []struct {
	suffix   string
	platform Platform
}{
	{"greenhouse.io", PlatformGreenhouse},
	{"lever.co", PlatformLever},
	{"myworkdayjobs.com", PlatformWorkday},
	{"workday.com", PlatformWorkday},
	{"ashbyhq.com", PlatformAshby},
}

// DetectPlatform identifies the job board from the URL host
func DetectPlatform(rawURL string) Platform {
	u, err := url.Parse(rawURL)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range platformHosts {
		if host == h.suffix || strings.HasSuffix(host, "."+h.suffix) {
			return h.platform
		}
	}
	return PlatformUnknown
}

type selectorSet struct {
	content []string
	noise   []string
}

// genericContent applies to boards without a known layout
var genericContent = []string{
	".job-description",
	"#job-description",
	".posting-content",
	".job-details",
	"[data-testid='job-description']",
	"main",
	"article",
	"#content",
}

// commonNoise is application forms, EEO statements, sharing and consent banners
var commonNoise = []string{
	"form",
	".application-form",
	".apply-button-container",
	".eeo-statement",
	".eeo-section",
	".voluntary-disclosure",
	".self-identification",
	".social-share",
	".share-buttons",
	".cookie-consent",
	".gdpr-notice",
}

var platformLayouts = map[Platform]selectorSet{
	PlatformGreenhouse: {
		content: []string{".job__description", ".job-post-container", "#content"},
		noise:   []string{".application--wrapper", ".voluntary-self-id", "#usa_self_id_section"},
	},
	PlatformLever: {
		content: []string{".posting-page", ".section-wrapper.page-full-width", ".content"},
		noise:   []string{".posting-apply", ".lever-application-form"},
	},
	PlatformWorkday: {
		content: []string{"[data-automation-id='jobPostingDescription']", "[data-automation-id='jobDescription']"},
		noise:   []string{"[data-automation-id='applyButton']", ".WDAF"},
	},
	PlatformAshby: {
		content: []string{"._descriptionText", "[class*='_description']", "main"},
		noise:   []string{"._applicationForm"},
	},
}

// platformSelectors returns the layout for p ahead of the generic fallbacks
func platformSelectors(p Platform) selectorSet {
	layout := platformLayouts[p]
	return selectorSet{
		content: append(append([]string{}, layout.content...), genericContent...),
		noise:   append(append([]string{}, commonNoise...), layout.noise...),
	}
}
