// Package scraper provides HTTP fetching and HTML parsing for the league
// schedule and standings pages.
//
// The schedule page lists one fixture per table row with the date and time
// on two lines, the home and away team names, and either a match status or a
// score. The standings page is a plain league table. Transient HTTP failures
// are retried with exponential backoff; both pages can be fetched concurrently
// with FetchAll.
package scraper
