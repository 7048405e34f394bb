package modelspec

// ImageSpec describes an image classification architecture. InputShape
// is {height, width}; pixels are normalized as (value - MeanRGB) / StddevRGB
// before they are fed to the graph.
type ImageSpec struct {
	name       string
	URI        string  `json:"uri"`
	InputShape []int   `json:"input_shape"`
	MeanRGB    float32 `json:"mean_rgb"`
	StddevRGB  float32 `json:"stddev_rgb"`
}

func (s *ImageSpec) Name() string {
	return s.name
}

func newImageSpec(name string, uri string, height int, width int) *ImageSpec {
	return &ImageSpec{
		name:       name,
		URI:        uri,
		InputShape: []int{height, width},
		MeanRGB:    0,
		StddevRGB:  255,
	}
}

// The EfficientNet-Lite variants only differ in their input resolution.

func EfficientNetLite0() Spec {
	return newImageSpec("efficientnet_lite0", "https://tfhub.dev/tensorflow/efficientnet/lite0/feature-vector/2", 224, 224)
}

func EfficientNetLite1() Spec {
	return newImageSpec("efficientnet_lite1", "https://tfhub.dev/tensorflow/efficientnet/lite1/feature-vector/2", 240, 240)
}

func EfficientNetLite2() Spec {
	return newImageSpec("efficientnet_lite2", "https://tfhub.dev/tensorflow/efficientnet/lite2/feature-vector/2", 260, 260)
}

func EfficientNetLite3() Spec {
	return newImageSpec("efficientnet_lite3", "https://tfhub.dev/tensorflow/efficientnet/lite3/feature-vector/2", 280, 280)
}

func EfficientNetLite4() Spec {
	return newImageSpec("efficientnet_lite4", "https://tfhub.dev/tensorflow/efficientnet/lite4/feature-vector/2", 300, 300)
}

func MobileNetV2() Spec {
	return newImageSpec("mobilenet_v2", "https://tfhub.dev/google/tf2-preview/mobilenet_v2/feature_vector/4", 224, 224)
}

func ResNet50() Spec {
	return newImageSpec("resnet_50", "https://tfhub.dev/google/imagenet/resnet_v2_50/feature_vector/4", 224, 224)
}
