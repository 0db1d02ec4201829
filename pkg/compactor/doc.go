// Package compactor periodically folds an engine's backlog of new
// journals and pending update markers in the background, the concrete
// realization of "the system reconciles these mutations by rewriting
// whole journals in the background".
package compactor
