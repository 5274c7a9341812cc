// Package fairhubpipeline converts ophthalmic imaging studies exported by
// clinical OCT scanners into harmonized, de-identified DICOM files suitable
// for a research data repository.
//
// # Architecture
//
// The pipeline is a batch converter built from small, composable stages:
//
//	┌─────────────────────────────────────┐
//	│           Pipeline Runner           │  Batch orchestration,
//	│   (worker pool, manifest, metrics)  │  per-job isolation
//	└─────────────────────────────────────┘
//	           ↓ runs
//	┌─────────────────────────────────────┐
//	│         Conversion Engine           │  Extract → Evaluate →
//	│    (profile-driven, device-free)    │  Synthesize → Write
//	└─────────────────────────────────────┘
//	           ↓ parameterized by
//	┌─────────────────────────────────────┐
//	│         Device Profiles             │  cirrus, maestro2_triton,
//	│  (rules, maps, transcode, fixups)   │  spectralis, flio
//	└─────────────────────────────────────┘
//
// The engine knows nothing about scanners. Each device family contributes a
// set of profiles: a conversion rule listing every tag and its disposition,
// derivation maps that compute values from companion files, an optional
// pixel-data transcoder, and synthesizers for derived functional-group
// sequences. Adding a scanner means writing data, not engine code.
//
// # Dispositions
//
// Every element a profile touches carries one disposition:
//
//   - Keep: copy the source value through unchanged
//   - Blank: emit the tag with an empty value (de-identification)
//   - Harmonize: replace with a fixed, vendor-normalized value
//   - Designate: compute the value from companion files via a derivation map
//   - ForceOnRead: override the parsed value before evaluation
//
// Tags absent from the rule are dropped. Sequences declared by the rule are
// always present in the output, as zero-item sequences when the source had
// none.
//
// # Packages
//
// Conversion core:
//   - catalog: tag roles, transfer syntaxes, device-family names
//   - entry: the extracted-element table (flat fields, nested sequences)
//   - extract: DICOM parsing into entry tables plus pixel payloads
//   - evaluate: rule evaluation producing the output element set
//   - synth: derived functional-group and segmentation sequences
//   - transcode: heightmap derivation from boundary cubes and point clouds
//   - writer: dataset assembly, fixups, and file output
//   - convert: the per-file engine tying the stages together
//   - device: per-scanner profiles and the profile registry
//
// Batch layer:
//   - pipeline: worker-pool batch runner
//   - manifest: run journal, dependency map, checksums
//   - config: YAML pipeline configuration
//
// Infrastructure:
//   - errors: classified structured errors
//   - metric: Prometheus metrics and the scrape endpoint
//   - pkg/worker: generic bounded worker pool
//   - testutil: DICOM fixture builders for tests
//
// # Binary
//
// cmd/fairhub-convert runs a batch described by a pipeline YAML file:
//
//	fairhub-convert --config pipeline.yaml --output /data/out
//
// Converted files land in the output directory alongside a manifest.json
// recording per-file outcomes, checksums, and input-to-output dependencies.
package fairhubpipeline
