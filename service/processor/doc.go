// Package processor advances process instances along their sequence flows:
// it starts instances, completes tasks and reacts to signals, messages and
// fired timer jobs. Every call mutates the instance aggregate it is given;
// persisting it is up to the caller.
package processor
