// Package comfyui drives a ComfyUI server running a FLUX.1 schnell workflow.
//
// A render queues the workflow graph on /prompt, polls /history/{id} until
// the SaveImage node reports an image, then downloads it from /view. The wait
// is bounded; exceeding it fails with services.ErrTimeout.
package comfyui
