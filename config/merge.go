package config

// mergeConfigs merges override configuration into base
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Version != "" {
		result.Version = override.Version
	}

	result.Server = mergeServer(base.Server, override.Server)
	result.UI = mergeUI(base.UI, override.UI)

	// Merge extensions
	if base.Extensions != nil || override.Extensions != nil {
		result.Extensions = make(map[string]interface{}, len(base.Extensions)+len(override.Extensions))
		for key, value := range base.Extensions {
			result.Extensions[key] = value
		}
	}
	for key, value := range override.Extensions {
		// If both base and override have the same extension key, merge them
		if baseValue, exists := result.Extensions[key]; exists {
			if baseMap, baseOk := baseValue.(map[string]interface{}); baseOk {
				if overrideMap, overrideOk := value.(map[string]interface{}); overrideOk {
					mergedMap := make(map[string]interface{}, len(baseMap)+len(overrideMap))
					for k, v := range baseMap {
						mergedMap[k] = v
					}
					for k, v := range overrideMap {
						mergedMap[k] = v
					}
					result.Extensions[key] = mergedMap
					continue
				}
			}
		}
		result.Extensions[key] = value
	}

	return &result
}

func mergeServer(base, override ServerConfig) ServerConfig {
	result := base

	if override.BaseURL != "" {
		result.BaseURL = override.BaseURL
	}
	if override.Timeout != "" {
		result.Timeout = override.Timeout
	}
	if override.CSRFCookie != "" {
		result.CSRFCookie = override.CSRFCookie
	}
	if override.CSRFHeader != "" {
		result.CSRFHeader = override.CSRFHeader
	}
	if override.UserAgent != "" {
		result.UserAgent = override.UserAgent
	}

	return result
}

func mergeUI(base, override UIConfig) UIConfig {
	result := base

	if override.Debug {
		result.Debug = override.Debug
	}
	if override.Drawer != nil {
		drawer := *override.Drawer
		result.Drawer = &drawer
	}
	if override.FeedbackFormURL != "" {
		result.FeedbackFormURL = override.FeedbackFormURL
	}

	return result
}
