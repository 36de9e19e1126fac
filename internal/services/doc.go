// Package services holds cross-cutting helpers shared by the classifier
// gateway, the stores, and the batch worker: the error taxonomy used to
// classify failures (transient vs permanent vs job-fatal) and context
// annotations that flow into structured logs.
package services
