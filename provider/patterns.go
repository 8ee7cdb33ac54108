package provider

// ArchitecturePattern names a project architecture.
type ArchitecturePattern string

const (
	PatternMVC               ArchitecturePattern = "MVC"
	PatternMVVM              ArchitecturePattern = "MVVM"
	PatternVIPER             ArchitecturePattern = "VIPER"
	PatternFeaturesBased     ArchitecturePattern = "Features-based"
	PatternCleanArchitecture ArchitecturePattern = "Clean Architecture"
	PatternModular           ArchitecturePattern = "Modular"
	PatternCustom            ArchitecturePattern = "Custom"
)

// ArchitecturePatterns lists every pattern in display order.
var ArchitecturePatterns = []ArchitecturePattern{
	PatternMVC,
	PatternMVVM,
	PatternVIPER,
	PatternFeaturesBased,
	PatternCleanArchitecture,
	PatternModular,
	PatternCustom,
}

// ParseArchitecturePattern maps a display name back to its pattern.
func ParseArchitecturePattern(s string) (ArchitecturePattern, bool) {
	for _, p := range ArchitecturePatterns {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// ArchitecturePatternNames returns the display names of all patterns.
func ArchitecturePatternNames() []string {
	names := make([]string, len(ArchitecturePatterns))
	for i, p := range ArchitecturePatterns {
		names[i] = string(p)
	}
	return names
}

// TemplateType names a code template.
type TemplateType string

const (
	TemplateSwiftPackage        TemplateType = "swift-package"
	TemplateUIKitViewController TemplateType = "uikit-viewcontroller"
	TemplateSwiftUIView         TemplateType = "swiftui-view"
	TemplateMVVMModule          TemplateType = "mvvm-module"
	TemplateCoordinator         TemplateType = "coordinator"
	TemplateNetworkService      TemplateType = "network-service"
	TemplateCoreDataModel       TemplateType = "coredata-model"
	TemplateUnitTests           TemplateType = "unit-tests"
)

// TemplateTypes lists every template type.
var TemplateTypes = []TemplateType{
	TemplateSwiftPackage,
	TemplateUIKitViewController,
	TemplateSwiftUIView,
	TemplateMVVMModule,
	TemplateCoordinator,
	TemplateNetworkService,
	TemplateCoreDataModel,
	TemplateUnitTests,
}

var templateDisplayNames = map[TemplateType]string{
	TemplateSwiftPackage:        "Swift Package",
	TemplateUIKitViewController: "UIKit View Controller",
	TemplateSwiftUIView:         "SwiftUI View",
	TemplateMVVMModule:          "MVVM Module",
	TemplateCoordinator:         "Coordinator",
	TemplateNetworkService:      "Network Service",
	TemplateCoreDataModel:       "Core Data Model",
	TemplateUnitTests:           "Unit Tests",
}

// DisplayName returns the human readable template name.
func (t TemplateType) DisplayName() string {
	if name, ok := templateDisplayNames[t]; ok {
		return name
	}
	return string(t)
}

// ParseTemplateType maps a wire name to its template type.
func ParseTemplateType(s string) (TemplateType, bool) {
	t := TemplateType(s)
	_, ok := templateDisplayNames[t]
	return t, ok
}

// TemplateTypeNames returns the wire names of all template types.
func TemplateTypeNames() []string {
	names := make([]string, len(TemplateTypes))
	for i, t := range TemplateTypes {
		names[i] = string(t)
	}
	return names
}
