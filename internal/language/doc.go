// Package language normalizes the language codes ytbili passes between
// transcription engines, translation providers and the API. It wraps
// golang.org/x/text/language so "zh_cn", "zh-CN" and "chinese" resolve to
// the same tag.
package language
