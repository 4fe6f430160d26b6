// Package presquile writes navigable chapters into MP3 files.
//
// It reads a marker table exported by an audio editor (Adobe Audition's
// tab separated "Name / Start / Duration" export, or any CSV with name and
// start columns), turns the markers into contiguous chapters and stores
// them in the file's ID3v2.4 tag as one CHAP frame per chapter plus a
// single top-level, ordered CTOC frame.
//
// # Quick Start
//
//	res, err := presquile.Apply(ctx, "markers.csv", "episode.mp3")
//	if err != nil {
//		log.Fatalf("%s: %v", presquile.KindOf(err), err)
//	}
//	for _, ch := range res.Chapters {
//		fmt.Printf("%s  %s\n", ch.Start(), ch.Title)
//	}
//
// # Guarantees
//
// Every frame other than CHAP and CTOC, the extended header and the audio
// payload are carried over byte for byte. Running Apply twice with the same
// markers produces the same file. The new file is assembled and checked in
// memory, then swapped in with an atomic rename, so a failure at any stage
// leaves the original untouched.
//
// # Pipeline
//
//	marker text ──► markers.Parser ──► chapters.Build ──► id3v2.Encoder ──► container.Merge
//	              (lazy Seq2 of rows)  (ordered, contiguous) (CHAP + CTOC)   (atomic rewrite)
//
// The last chapter ends at its marker's own end when the table has one,
// else at WithTotalDuration, else at the duration read from the MPEG frame
// headers.
//
// # Errors
//
// Failures are typed: MalformedMarkerRowError, NoMarkersFoundError,
// UnorderedMarkersError, MissingFinalChapterEndError,
// FrameEncodingOverflowError, TagRegionNotFoundError and IOError. Each
// matches its Err sentinel with errors.Is, and KindOf names the kind.
//
// # Batch
//
// ApplyMany processes independent files concurrently:
//
//	results, err := presquile.ApplyMany(ctx, []presquile.Job{
//		{Markers: "ep1.csv", Media: "ep1.mp3"},
//		{Markers: "ep2.csv", Media: "ep2.mp3"},
//	}, presquile.WithConcurrency(4))
package presquile
