// Command presquile writes ID3v2.4 chapters into MP3 files from Adobe
// Audition marker exports.
//
//	presquile apply markers.csv episode.mp3
//	presquile batch a.csv a.mp3 b.csv b.mp3
//	presquile inspect episode.mp3
//	presquile config init
package main
