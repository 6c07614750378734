// Package xconf 基于 koanf 的配置加载。
//
// 支持 YAML 与 JSON，可从文件（[New]）或字节数据（[NewFromBytes]）创建。
// 反序列化默认使用 koanf 结构体标签：
//
//	cfg, err := xconf.New("/etc/xspan/config.yaml")
//	if err != nil {
//	    return err
//	}
//	var layer xreqspan.Config
//	if err := cfg.Unmarshal("xspan", &layer); err != nil {
//	    return err
//	}
package xconf
