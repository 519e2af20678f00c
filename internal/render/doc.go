// Package render defines the renderer boundary the export pipeline drives.
//
// The real sequence renderer lives in the host application; this package
// specifies the interface the pipeline consumes plus the option set that
// affects rendered bytes. FileRenderer is the CLI's implementation: it treats
// the already-rendered catalog image as the render product, re-decoding it
// through the validator.
package render
