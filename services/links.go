package services

import (
	"context"
	"regexp"
	"strings"

	"tstrend/models"
	"tstrend/utils"
)

var (
	githubLinkRegexp = regexp.MustCompile(`(?:https?://)?(?:www\.)?github\.com/([a-zA-Z0-9._-]+)/([a-zA-Z0-9._-]+)`)
	hubLinkRegexp    = regexp.MustCompile(`(?:https?://)?huggingface\.co/([a-zA-Z0-9._-]+)/([a-zA-Z0-9._-]+)`)

	// path segments that look like owner/repo but are site pages
	reservedSegments = map[string]struct{}{
		"orgs": {}, "topics": {}, "site": {}, "blog": {}, "about": {},
	}
)

// ExtractLinks finds GitHub and Hugging Face repository URLs in text. GitHub
// links come first, each group in order of appearance, without duplicates.
func ExtractLinks(text string) []string {
	if text == "" {
		return nil
	}

	set := utils.NewURLSet()
	collect := func(re *regexp.Regexp, base string) {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			owner, repo := normaliseSegment(m[1]), normaliseSegment(m[2])
			if owner == "" || repo == "" || reserved(owner) || reserved(repo) {
				continue
			}
			set.Add(base + owner + "/" + repo)
		}
	}
	collect(githubLinkRegexp, "https://github.com/")
	collect(hubLinkRegexp, "https://huggingface.co/")

	if set.Size() == 0 {
		return nil
	}
	return set.Items()
}

// normaliseSegment strips trailing punctuation and a ".git" suffix until
// neither is left.
func normaliseSegment(s string) string {
	for {
		trimmed := strings.TrimRight(s, ".,;)]}")
		trimmed = strings.TrimSuffix(trimmed, ".git")
		if trimmed == s {
			return s
		}
		s = trimmed
	}
}

func reserved(segment string) bool {
	_, ok := reservedSegments[strings.ToLower(segment)]
	return ok
}

// RepoLookup resolves the popularity of a GitHub repository URL.
type RepoLookup interface {
	LookupRepo(ctx context.Context, repoURL string) models.Popularity
}

// LinkFinder picks the best code link for each paper. It remembers every URL
// it has examined so that later papers do not repeat lookups.
type LinkFinder struct {
	lookup   RepoLookup
	throttle *utils.Throttle
	checked  *utils.URLSet
	logger   *utils.Logger
}

// NewLinkFinder creates a LinkFinder. throttle is waited on before every
// GitHub lookup and may be nil.
func NewLinkFinder(lookup RepoLookup, throttle *utils.Throttle, logger *utils.Logger) *LinkFinder {
	return &LinkFinder{
		lookup:   lookup,
		throttle: throttle,
		checked:  utils.NewURLSet(),
		logger:   logger,
	}
}

// Best returns the most popular valid link, or nil when none qualifies.
// A rate-limited repository still counts, with score 0 and unknown stars.
// A Hugging Face link is only taken when no GitHub link qualified.
func (f *LinkFinder) Best(ctx context.Context, links []string) *models.CodeLink {
	var best *models.CodeLink
	bestScore := -1

	for _, link := range links {
		if !f.checked.Add(link) {
			continue
		}

		switch {
		case strings.Contains(link, "github.com"):
			if err := f.throttle.Wait(ctx); err != nil {
				return best
			}
			pop := f.lookup.LookupRepo(ctx, link)
			if !pop.Valid() {
				f.logger.Debug("[links] Skipping %s (%s)", link, pop.State)
				continue
			}
			score := 0
			if pop.State == models.Found {
				score = pop.Stars
			}
			if score > bestScore {
				bestScore = score
				best = &models.CodeLink{URL: link, Kind: models.CodeGitHub, Popularity: pop}
			}

		case strings.Contains(link, "huggingface.co"):
			if bestScore < 0 {
				bestScore = 0
				best = &models.CodeLink{
					URL:        link,
					Kind:       models.CodeHuggingFace,
					Popularity: models.Popularity{State: models.Found},
				}
			}
		}
	}
	return best
}
