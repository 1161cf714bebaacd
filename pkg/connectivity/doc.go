/*
Package connectivity runs the network reachability checks for the pipeline's
downstream dependencies: DNS resolution and TLS handshake against the
search-engine host, a cluster-health HTTP call, and a bare TCP connect to
the queue service.

All four checks run as a concurrent batch per cycle, each wrapped in the
shared retry executor. The batch always joins every check; a failing check
never cancels its siblings, unlike the container-stack probe which
deliberately short-circuits on the first unhealthy service.

pipeline_ok is the logical AND over all check verdicts for the cycle; a
check that exhausted its retries counts as false.
*/
package connectivity
