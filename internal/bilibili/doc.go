// Package bilibili publishes finished jobs to Bilibili by driving the creator
// upload page in Chrome through chromedp.
//
// The browser reuses a persistent profile directory, so a session created once
// with Login (exposed as 'ytbili bilibili login') is picked up by every
// headless upload afterwards. BuildMetadata applies the title, description and
// tag fallbacks and the form's length limits before anything is typed.
package bilibili
