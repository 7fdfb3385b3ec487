package scraper

// DefaultProfile is used for any site without its own profile.
func DefaultProfile() SourceProfile {
	return SourceProfile{
		Name: DefaultProfileName,
		ContentSelectors: []string{
			"[itemprop='articleBody']",
			".article-body",
			".article__body",
			".article-content",
			".story-body",
			".entry-content",
			".post-content",
			"article",
			"[role='main']",
			"main",
		},
		TitleSelectors: []string{
			"h1[itemprop='headline']",
			"h1.headline",
			"article h1",
		},
		AuthorSelectors: []string{
			"[itemprop='author'] [itemprop='name']",
			"[rel='author']",
			".byline__name",
			".author-name",
		},
		ExcludeSelectors: []string{
			"nav",
			"footer",
			"aside",
			"form",
			".advert",
			".advertisement",
			".social-share",
			".share-tools",
			".related-articles",
			".newsletter-signup",
			".comments",
			"#comments",
			".cookie-banner",
		},
	}
}

// BuiltinProfiles covers publishers common in UK regional coverage.
func BuiltinProfiles() []SourceProfile {
	return []SourceProfile{
		{
			Name:             "bbc",
			Domains:          []string{"bbc.co.uk", "bbc.com"},
			ContentSelectors: []string{"main article", "article"},
			TitleSelectors:   []string{"h1#main-heading", "article h1"},
			AuthorSelectors:  []string{"[data-testid='byline-new-contributors'] span", "[class*='Contributor'] span"},
			ExcludeSelectors: []string{
				"[data-component='links-block']",
				"[data-component='related-internet-links']",
				"[data-component='tag-list']",
				"[data-testid='byline-new']",
				"figure",
			},
			ArticleLinkPatterns: []string{
				`/news/(?:uk-)?[a-z-]+-\d{6,}$`,
				`/news/articles/[a-z0-9]+$`,
			},
		},
		{
			Name:             "newsquest",
			Domains:          []string{"theargus.co.uk", "bournemouthecho.co.uk", "oxfordmail.co.uk", "yorkpress.co.uk"},
			ContentSelectors: []string{"#article-body", ".article-body", "[itemprop='articleBody']"},
			TitleSelectors:   []string{"h1.mar-article__headline", "h1"},
			AuthorSelectors:  []string{".mar-author-byline__name", ".author-name"},
			ExcludeSelectors: []string{".mar-related", ".mar-inline-related", ".mar-taboola", ".nq-ad"},
			ArticleLinkPatterns: []string{
				`/news/\d{6,}\.[a-z0-9-]+/?$`,
				`/sport/\d{6,}\.[a-z0-9-]+/?$`,
			},
		},
		{
			Name:             "nationalworld",
			Domains:          []string{"sussexexpress.co.uk", "eastbourneherald.co.uk", "sussexworld.co.uk", "chichester.co.uk"},
			ContentSelectors: []string{".article-content", "[class*='article-content']", "article"},
			TitleSelectors:   []string{"h1[class*='headline']", "h1"},
			AuthorSelectors:  []string{"[class*='author-name']", "[rel='author']"},
			ExcludeSelectors: []string{"[class*='related']", "[class*='newsletter']", "[class*='ad-slot']"},
			ArticleLinkPatterns: []string{
				`/news/.+-\d{7,}$`,
				`/[a-z-]+/.+-\d{7,}$`,
			},
		},
		{
			Name:             "kentonline",
			Domains:          []string{"kentonline.co.uk"},
			ContentSelectors: []string{"#ArticleBody", ".ArticleBody", "article"},
			TitleSelectors:   []string{"h1"},
			AuthorSelectors:  []string{".ArticleAuthor", ".byline"},
			ExcludeSelectors: []string{".RelatedArticles", ".ReadMore", ".Advert"},
			ArticleLinkPatterns: []string{
				`/[a-z-]+/news/.+-\d{5,}/?$`,
			},
		},
		{
			Name:             "govuk",
			Domains:          []string{"gov.uk"},
			ContentSelectors: []string{".govspeak", "#content .gem-c-govspeak", "main"},
			TitleSelectors:   []string{"h1.gem-c-title__text", "h1"},
			AuthorSelectors:  []string{".gem-c-metadata__definition a"},
			DateSelectors:    []string{".gem-c-metadata__definition time", "time"},
			ExcludeSelectors: []string{".gem-c-contextual-sidebar", ".gem-c-related-navigation", ".gem-c-print-link"},
			ArticleLinkPatterns: []string{
				`/government/news/[a-z0-9-]+$`,
				`/news/[a-z0-9-]+$`,
			},
		},
	}
}
