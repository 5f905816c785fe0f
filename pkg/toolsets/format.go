// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package toolsets

import (
	"fmt"
	"strings"

	"github.com/kraklabs/devmcp/pkg/github"
)

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

func formatRepoLine(r github.Repository) string {
	var sb strings.Builder
	visibility := "public"
	if r.Private {
		visibility = "private"
	}
	fmt.Fprintf(&sb, "%s (%s)\n", r.FullName, visibility)
	fmt.Fprintf(&sb, "   %s\n", orNA(r.Description))
	fmt.Fprintf(&sb, "   stars: %d | forks: %d | language: %s\n", r.Stars, r.Forks, orNA(r.Language))
	if r.HTMLURL != "" {
		fmt.Fprintf(&sb, "   %s\n", r.HTMLURL)
	}
	return sb.String()
}

func formatRepoList(title string, repos []github.Repository) string {
	if len(repos) == 0 {
		return title + "\n\nNo repositories found."
	}
	lines := make([]string, 0, len(repos))
	for _, r := range repos {
		lines = append(lines, formatRepoLine(r))
	}
	return title + "\n\n" + strings.Join(lines, "\n")
}

func formatRepoInfo(r *github.Repository) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Repository: %s\n\n", r.FullName)
	fmt.Fprintf(&sb, "Description: %s\n", orNA(r.Description))
	fmt.Fprintf(&sb, "URL: %s\n", orNA(r.HTMLURL))
	fmt.Fprintf(&sb, "Stars: %d\n", r.Stars)
	fmt.Fprintf(&sb, "Forks: %d\n", r.Forks)
	fmt.Fprintf(&sb, "Open issues: %d\n", r.OpenIssues)
	fmt.Fprintf(&sb, "Language: %s\n", orNA(r.Language))
	fmt.Fprintf(&sb, "Default branch: %s\n", orNA(r.DefaultBranch))
	if len(r.Topics) > 0 {
		fmt.Fprintf(&sb, "Topics: %s\n", strings.Join(r.Topics, ", "))
	}
	if !r.UpdatedAt.IsZero() {
		fmt.Fprintf(&sb, "Updated: %s\n", r.UpdatedAt.Format("2006-01-02"))
	}
	if r.Private {
		sb.WriteString("Private: yes\n")
	} else {
		sb.WriteString("Private: no\n")
	}
	return sb.String()
}

func formatIssues(title string, issues []github.Issue) string {
	if len(issues) == 0 {
		return title + "\n\nNo issues found."
	}
	lines := make([]string, 0, len(issues))
	for _, i := range issues {
		labels := "no labels"
		if len(i.Labels) > 0 {
			labels = strings.Join(i.Labels, ", ")
		}
		created := ""
		if !i.CreatedAt.IsZero() {
			created = " | " + i.CreatedAt.Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("#%d - %s\n   by %s%s | comments: %d\n   labels: %s\n   %s\n",
			i.Number, i.Title, orNA(i.Author), created, i.Comments, labels, i.HTMLURL))
	}
	return title + "\n\n" + strings.Join(lines, "\n")
}

func formatPullRequests(title string, prs []github.PullRequest) string {
	if len(prs) == 0 {
		return title + "\n\nNo pull requests found."
	}
	lines := make([]string, 0, len(prs))
	for _, p := range prs {
		draft := ""
		if p.Draft {
			draft = " [draft]"
		}
		lines = append(lines, fmt.Sprintf("#%d - %s%s\n   by %s | %s -> %s\n   %s\n",
			p.Number, p.Title, draft, orNA(p.Author), p.Head, p.Base, p.HTMLURL))
	}
	return title + "\n\n" + strings.Join(lines, "\n")
}

func formatUser(u *github.User) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "User: %s\n\n", u.Login)
	fmt.Fprintf(&sb, "Name: %s\n", orNA(u.Name))
	fmt.Fprintf(&sb, "URL: %s\n", orNA(u.HTMLURL))
	fmt.Fprintf(&sb, "Company: %s\n", orNA(u.Company))
	fmt.Fprintf(&sb, "Location: %s\n", orNA(u.Location))
	fmt.Fprintf(&sb, "Bio: %s\n", orNA(u.Bio))
	fmt.Fprintf(&sb, "Public repos: %d\n", u.PublicRepos)
	fmt.Fprintf(&sb, "Followers: %d\n", u.Followers)
	fmt.Fprintf(&sb, "Following: %d\n", u.Following)
	return sb.String()
}

func formatCode(title string, res *github.CodeSearch) string {
	if len(res.Items) == 0 {
		return title + "\n\nNo matches found."
	}
	lines := make([]string, 0, len(res.Items))
	for _, m := range res.Items {
		lines = append(lines, fmt.Sprintf("%s: %s\n   %s\n", m.Repository, m.Path, m.HTMLURL))
	}
	return fmt.Sprintf("%s (%d total)\n\n%s", title, res.Total, strings.Join(lines, "\n"))
}

func formatFile(repo string, f *github.FileContent) string {
	header := fmt.Sprintf("%s: %s (%d bytes)", repo, f.Path, f.Size)
	if f.Truncated {
		header += fmt.Sprintf(", showing first %d characters", github.MaxFileChars)
	}
	return header + "\n\n" + f.Content
}
